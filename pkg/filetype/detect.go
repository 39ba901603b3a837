package filetype

import (
	"bytes"
	"encoding/binary"
	"math"
	"strings"
)

// Detect returns the extension and media type of a stream by reading the "magic numbers" at the beginning of it
// Both are empty if the type could not be determined
func Detect(buf *Buffer) (ext string, mime string, err error) {
	// Read the first 12 bytes to start populating the buffer
	_, err = buf.ReadBytes(12, nil)
	if err != nil {
		return
	}

	if buf.MustNextEqual([]byte{0x50, 0x4B, 0x03, 0x04}) ||
		buf.MustNextEqual([]byte{0x50, 0x4B, 0x05, 0x06}) {
		return detectZip(buf)
	}

	if buf.MustNextEqual([]byte{0x1F, 0x8B, 0x08}) {
		ext = "gz"
		mime = "application/gzip"
		return
	}

	if buf.MustNextEqual([]byte{0x42, 0x5A, 0x68}) {
		ext = "bz2"
		mime = "application/x-bzip2"
		return
	}

	if buf.MustNextEqual([]byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C}) {
		ext = "7z"
		mime = "application/x-7z-compressed"
		return
	}

	if buf.MustNextEqual([]byte{0xFD, 0x37, 0x7A, 0x58, 0x5A, 0x00}) {
		ext = "xz"
		mime = "application/x-xz"
		return
	}

	if buf.MustNextEqual([]byte{0x28, 0xB5, 0x2F, 0xFD}) {
		ext = "zst"
		mime = "application/zstd"
		return
	}

	if buf.MustNextEqual([]byte{0x52, 0x61, 0x72, 0x21, 0x1A, 0x07, 0x00}) ||
		buf.MustNextEqual([]byte{0x52, 0x61, 0x72, 0x21, 0x1A, 0x07, 0x01}) {
		ext = "rar"
		mime = "application/x-rar-compressed"
		return
	}

	if buf.MustNextEqualString("ID3") {
		return detectID3(buf)
	}

	// MPEG audio frame sync
	if buf.MustNextEqualWithMask([]byte{0xFF, 0xE2}, []byte{0xFF, 0xE6}) {
		ext = "mp3"
		mime = "audio/mpeg"
		return
	}

	if buf.MustNextEqualString("OggS") {
		ext = "ogg"
		mime = "application/ogg"
		return
	}

	if buf.MustNextEqualString("fLaC") {
		ext = "flac"
		mime = "audio/x-flac"
		return
	}

	if buf.MustNextEqualString("MThd") {
		ext = "mid"
		mime = "audio/midi"
		return
	}

	if buf.MustNextEqualString("FORM") &&
		(buf.MustNextEqualString("AIFF", &ReadBytesOpts{Offset: 8}) ||
			buf.MustNextEqualString("AIFC", &ReadBytesOpts{Offset: 8})) {
		ext = "aif"
		mime = "audio/aiff"
		return
	}

	if buf.MustNextEqualString("RIFF") {
		if buf.MustNextEqualString("WAVE", &ReadBytesOpts{Offset: 8}) {
			ext = "wav"
			mime = "audio/wav"
			return
		}

		if buf.MustNextEqualString("AVI ", &ReadBytesOpts{Offset: 8}) {
			ext = "avi"
			mime = "video/x-msvideo"
			return
		}

		if buf.MustNextEqualString("WEBP", &ReadBytesOpts{Offset: 8}) {
			ext = "webp"
			mime = "image/webp"
			return
		}
	}

	if buf.MustNextEqualString("ftyp", &ReadBytesOpts{Offset: 4}) {
		ext, mime = detectFtyp(buf)
		if ext != "" {
			return
		}
	}

	// EBML root element; the doctype is not parsed
	if buf.MustNextEqual([]byte{0x1A, 0x45, 0xDF, 0xA3}) {
		if read, _ := buf.ReadBytes(64, nil); bytes.Contains(read, []byte("webm")) {
			ext = "webm"
			mime = "video/webm"
			return
		}
		ext = "mkv"
		mime = "video/x-matroska"
		return
	}

	if buf.MustNextEqual([]byte{0x46, 0x4C, 0x56, 0x01}) {
		ext = "flv"
		mime = "video/x-flv"
		return
	}

	if buf.MustNextEqualString("wOFF") {
		ext = "woff"
		mime = "font/woff"
		return
	}

	if buf.MustNextEqualString("wOF2") {
		ext = "woff2"
		mime = "font/woff2"
		return
	}

	if buf.MustNextEqual([]byte{0x4F, 0x54, 0x54, 0x4F, 0x00}) {
		ext = "otf"
		mime = "font/otf"
		return
	}

	if buf.MustNextEqual([]byte{0x00, 0x01, 0x00, 0x00, 0x00}) {
		ext = "ttf"
		mime = "font/ttf"
		return
	}

	if buf.MustNextEqual([]byte{0x00, 0x61, 0x73, 0x6D}) {
		ext = "wasm"
		mime = "application/wasm"
		return
	}

	if buf.MustNextEqual([]byte{0x7F, 0x45, 0x4C, 0x46}) {
		ext = "elf"
		mime = "application/x-elf"
		return
	}

	if buf.MustNextEqual([]byte{0x4D, 0x5A}) {
		ext = "exe"
		mime = "application/x-msdownload"
		return
	}

	// TIFF, little-endian and big-endian
	if buf.MustNextEqual([]byte{0x49, 0x49, 0x2A, 0x00}) ||
		buf.MustNextEqual([]byte{0x4D, 0x4D, 0x00, 0x2A}) {
		ext = "tif"
		mime = "image/tiff"
		return
	}

	if buf.MustNextEqualString("8BPS") {
		ext = "psd"
		mime = "image/vnd.adobe.photoshop"
		return
	}

	if buf.MustNextEqual([]byte{0x00, 0x00, 0x00, 0x0C, 0x4A, 0x58, 0x4C, 0x20, 0x0D, 0x0A, 0x87, 0x0A}) ||
		buf.MustNextEqual([]byte{0xFF, 0x0A}) {
		ext = "jxl"
		mime = "image/jxl"
		return
	}

	if buf.MustNextEqual([]byte{0x00, 0x00, 0x02, 0x00}) {
		ext = "cur"
		mime = "image/x-icon"
		return
	}

	if buf.MustNextEqualString("{\\rtf") {
		ext = "rtf"
		mime = "application/rtf"
		return
	}

	if buf.MustNextEqualString("SQLite format 3\x00") {
		ext = "sqlite"
		mime = "application/vnd.sqlite3"
		return
	}

	if buf.MustNextEqualString("<?xml ") {
		ext = "xml"
		mime = "application/xml"
		return
	}

	return
}

// Distinguishes the formats based on zip by looking at the first entry
func detectZip(buf *Buffer) (ext string, mime string, err error) {
	// https://en.wikipedia.org/wiki/Zip_(file_format)#File_headers
	var read []byte
	read, err = buf.ReadBytes(30, nil)
	if err != nil {
		return
	}
	if len(read) == 30 {
		compressedSize := binary.LittleEndian.Uint32(read[18:22])
		uncompressedSize := binary.LittleEndian.Uint32(read[22:26])
		filenameLength := int(binary.LittleEndian.Uint16(read[26:28]))
		extraFieldLength := int(binary.LittleEndian.Uint16(read[28:30]))

		read, err = buf.ReadBytes(filenameLength, &ReadBytesOpts{Offset: 30})
		if err != nil {
			return
		}
		filename := string(read)

		switch {
		// The mimetype file is stored uncompressed right after the header of the first entry
		case filename == "mimetype" && compressedSize == uncompressedSize && compressedSize <= 128:
			read, err = buf.ReadBytes(int(compressedSize), &ReadBytesOpts{Offset: 30 + filenameLength + extraFieldLength})
			if err != nil {
				return
			}
			switch strings.TrimSpace(string(read)) {
			case "application/epub+zip":
				ext = "epub"
				mime = "application/epub+zip"
				return
			case "application/vnd.oasis.opendocument.text":
				ext = "odt"
				mime = "application/vnd.oasis.opendocument.text"
				return
			case "application/vnd.oasis.opendocument.spreadsheet":
				ext = "ods"
				mime = "application/vnd.oasis.opendocument.spreadsheet"
				return
			case "application/vnd.oasis.opendocument.presentation":
				ext = "odp"
				mime = "application/vnd.oasis.opendocument.presentation"
				return
			}
		case filename == "META-INF/mozilla.rsa":
			ext = "xpi"
			mime = "application/x-xpinstall"
			return
		case strings.HasPrefix(filename, "word/"):
			ext = "docx"
			mime = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
			return
		case strings.HasPrefix(filename, "ppt/"):
			ext = "pptx"
			mime = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
			return
		case strings.HasPrefix(filename, "xl/"):
			ext = "xlsx"
			mime = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
			return
		}
	}

	ext = "zip"
	mime = "application/zip"
	return
}

// An ID3v2 tag is followed by the actual audio stream
// When the tag doesn't fit in the sample, the stream is assumed to be MP3
func detectID3(buf *Buffer) (ext string, mime string, err error) {
	var read []byte
	read, err = buf.ReadBytes(4, &ReadBytesOpts{Offset: 6})
	if err != nil {
		return
	} else if len(read) != 4 {
		// Undetermined file type
		return
	}
	headerLen := parseID3SyncSafeUint32([4]byte{read[0], read[1], read[2], read[3]})
	if headerLen > math.MaxInt32-10 {
		return
	}

	read, err = buf.ReadBytes(int(headerLen)+10, nil)
	if err != nil {
		return
	}
	if len(read) < int(headerLen)+10 {
		ext = "mp3"
		mime = "audio/mpeg"
		return
	}

	// Skip the tag and look at what follows
	buf.Skip(int(headerLen) + 10)
	ext, mime, err = Detect(buf)
	if err == nil && ext == "" {
		ext = "mp3"
		mime = "audio/mpeg"
	}
	return
}

// Reads the major brand of an ISO base media file
func detectFtyp(buf *Buffer) (ext string, mime string) {
	read, err := buf.ReadBytes(4, &ReadBytesOpts{Offset: 8})
	if err != nil || len(read) != 4 {
		return
	}
	// The brand must consist of printable characters
	for _, c := range read {
		if c&0x60 == 0 {
			return
		}
	}
	brandMajor := strings.TrimSpace(string(bytes.ReplaceAll(read, []byte{0x00}, []byte{0x20})))

	switch brandMajor {
	case "avif", "avis":
		return "avif", "image/avif"
	case "mif1", "heic", "heix":
		return "heic", "image/heic"
	case "msf1", "hevc", "hevx":
		return "heic", "image/heic-sequence"
	case "qt":
		return "mov", "video/quicktime"
	case "M4V", "M4VH", "M4VP":
		return "m4v", "video/x-m4v"
	case "M4A", "M4B", "F4A", "F4B":
		return "m4a", "audio/mp4"
	case "crx":
		return "cr3", "image/x-canon-cr3"
	}

	if strings.HasPrefix(brandMajor, "3g2") {
		return "3g2", "video/3gpp2"
	}
	if strings.HasPrefix(brandMajor, "3g") {
		return "3gp", "video/3gpp"
	}
	return "mp4", "video/mp4"
}
