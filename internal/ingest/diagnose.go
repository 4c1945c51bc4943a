package ingest

import (
	"bytes"
	"encoding/hex"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/richardlehane/mscfb"
)

// SignatureLen is the number of leading bytes reported for a file that no
// strategy could parse.
const SignatureLen = 20

var oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// Diagnosis describes a file every strategy rejected.
type Diagnosis struct {
	// Hex is the first SignatureLen bytes in hexadecimal.
	Hex string
	// MIME is the content type sniffed from the bytes.
	MIME string
	// Streams lists the top-level entries of an OLE2 compound document.
	Streams []string
	// Encrypted is set for password-protected OOXML workbooks, which are
	// stored as a compound document holding an EncryptionInfo stream.
	Encrypted bool
}

// String summarizes the diagnosis on one line.
func (d Diagnosis) String() string {
	parts := []string{"signature " + d.Hex}
	if d.MIME != "" {
		parts = append(parts, "detected "+d.MIME)
	}
	if d.Encrypted {
		parts = append(parts, "password protected")
	}
	if len(d.Streams) > 0 {
		parts = append(parts, "streams "+strings.Join(d.Streams, ", "))
	}
	return strings.Join(parts, "; ")
}

// Signature returns the hex form of the first SignatureLen bytes.
func Signature(data []byte) string {
	n := min(len(data), SignatureLen)
	return hex.EncodeToString(data[:n])
}

// Diagnose inspects raw bytes for the exhaustion report.
func Diagnose(data []byte) Diagnosis {
	d := Diagnosis{Hex: Signature(data)}
	if len(data) == 0 {
		return d
	}
	d.MIME = mimetype.Detect(data).String()

	if bytes.HasPrefix(data, oleMagic) {
		d.Streams = compoundStreams(data)
		for _, s := range d.Streams {
			if s == "EncryptionInfo" || s == "EncryptedPackage" {
				d.Encrypted = true
			}
		}
	}
	return d
}

// compoundStreams lists entry names of an OLE2 container. Malformed
// containers yield whatever was read before the error.
func compoundStreams(data []byte) (names []string) {
	defer func() {
		if recover() != nil {
			names = nil
		}
	}()
	doc, err := mscfb.New(bytes.NewReader(data))
	if err != nil {
		return nil
	}
	for {
		entry, err := doc.Next()
		if err != nil {
			break
		}
		if len(entry.Path) == 0 {
			names = append(names, strings.TrimSpace(entry.Name))
		}
	}
	return names
}

// IsCompoundDocument reports whether data starts with the OLE2 signature
// used by legacy .xls files and encrypted workbooks.
func IsCompoundDocument(data []byte) bool {
	return bytes.HasPrefix(data, oleMagic)
}
