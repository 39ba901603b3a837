package sniff

// Match returns true if the beginning of sample matches the pattern
// Only the first SampleSize bytes of sample are considered
func (p *Pattern) Match(sample []byte) bool {
	sample = window(sample)
	if p.LeadingWS {
		return p.matchWS(sample)
	}
	return p.matchExact(sample)
}

func (p *Pattern) matchExact(sample []byte) bool {
	if len(sample) < p.Length {
		return false
	}
	for i := 0; i < p.Length; i++ {
		if sample[i]&p.Mask[i] != p.Bytes[i] {
			return false
		}
	}
	return true
}

// Whitespace-tolerant comparison
// A sentinel position consumes any run of whitespace (including an empty one) and is then left behind
// The rule matches once every position of the pattern has been consumed, sentinels included; this is the same as requiring the pattern cursor to go past Length
func (p *Pattern) matchWS(sample []byte) bool {
	var (
		is int
		ip int
	)
	for ip < len(p.Bytes) {
		if p.Bytes[ip] == wsSentinel && ip < len(p.Bytes)-p.Length {
			if is < len(sample) && isWhitespace(sample[is]) {
				is++
			} else {
				ip++
			}
			continue
		}

		// Ran out of data before the pattern was complete
		if is >= len(sample) {
			return false
		}
		if sample[is]&p.Mask[ip] != p.Bytes[ip] {
			return false
		}
		ip++
		is++
	}
	return ip > p.Length
}
