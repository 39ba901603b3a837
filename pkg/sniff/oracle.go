package sniff

// Oracle is a best-effort guesser consulted when no rule in the signature table matches
// It returns an empty string when it has no guess; certain is informational only
type Oracle interface {
	Guess(uri string, sample []byte) (mediaType string, certain bool)
}

// OracleFunc allows using a function as an Oracle
type OracleFunc func(uri string, sample []byte) (string, bool)

// Guess calls f(uri, sample)
func (f OracleFunc) Guess(uri string, sample []byte) (string, bool) {
	return f(uri, sample)
}

// NoOracle never returns a guess
var NoOracle Oracle = OracleFunc(func(string, []byte) (string, bool) {
	return "", false
})
