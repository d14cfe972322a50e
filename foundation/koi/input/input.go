// File: input.go
// Title: KoiLang Input Decoding
// Description: Reads KoiLang sources from readers and files in a named
//              text encoding and returns UTF-8 text ready for the parser.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-16
// Modified: 2026-10-16
//
// Change History:
// - 2026-10-16 v0.1.0: Initial implementation

// Package input turns byte sources into parser-ready UTF-8 text.
package input

import (
	"bytes"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	mdwerror "github.com/msto63/koi/foundation/core/error"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

const (
	// EncodingAuto honours a UTF-8 or UTF-16 byte order mark and falls
	// back to UTF-8
	EncodingAuto = "auto"
	EncodingUTF8 = "utf-8"
)

// Lookup resolves an encoding name. Names follow the WHATWG encoding
// labels ("utf-8", "utf-16le", "latin1", "windows-1252", "shift_jis",
// "gbk", ...) plus "auto".
func Lookup(name string) (encoding.Encoding, error) {
	switch n := strings.ToLower(strings.TrimSpace(name)); n {
	case "", EncodingAuto:
		return unicode.UTF8BOM, nil
	case EncodingUTF8, "utf8":
		return unicode.UTF8, nil
	default:
		enc, err := htmlindex.Get(n)
		if err != nil {
			return nil, mdwerror.Wrap(err, "unknown encoding").
				WithCode(mdwerror.CodeEncoding).
				WithOperation("input.Lookup").
				WithDetail("encoding", name)
		}
		return enc, nil
	}
}

// Valid reports whether name is a known encoding
func Valid(name string) bool {
	_, err := Lookup(name)
	return err == nil
}

// ReadAll reads r completely and decodes it from the named encoding.
// Under "utf-8" invalid byte sequences are an error; other decoders
// substitute U+FFFD.
func ReadAll(r io.Reader, encodingName string) (string, error) {
	enc, err := Lookup(encodingName)
	if err != nil {
		return "", err
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return "", mdwerror.Wrap(err, "failed to read input").
			WithCode(mdwerror.CodeIOError).
			WithOperation("input.ReadAll")
	}

	if isUTF8(encodingName) {
		if !utf8.Valid(raw) {
			return "", mdwerror.New("input is not valid UTF-8").
				WithCode(mdwerror.CodeEncoding).
				WithOperation("input.ReadAll").
				WithDetail("offset", invalidOffset(raw))
		}
		return string(bytes.TrimPrefix(raw, utf8BOM)), nil
	}

	var decoder transform.Transformer = enc.NewDecoder()
	if isAuto(encodingName) {
		decoder = unicode.BOMOverride(unicode.UTF8.NewDecoder())
	}
	data, _, err := transform.Bytes(decoder, raw)
	if err != nil {
		return "", mdwerror.Wrap(err, "failed to decode input").
			WithCode(mdwerror.CodeEncoding).
			WithOperation("input.ReadAll").
			WithDetail("encoding", encodingName)
	}
	return string(bytes.TrimPrefix(data, utf8BOM)), nil
}

// ReadFile reads and decodes the file at path
func ReadFile(path, encodingName string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", mdwerror.Wrap(err, "failed to open input").
			WithCode(mdwerror.CodeIOError).
			WithOperation("input.ReadFile").
			WithDetail("path", path)
	}
	defer f.Close()

	text, err := ReadAll(f, encodingName)
	if err != nil {
		return "", mdwerror.Wrap(err, "failed to read "+path).WithDetail("path", path)
	}
	return text, nil
}

// NewWriter returns a writer that encodes UTF-8 text into the named
// encoding. Close flushes buffered output; it does not close w.
func NewWriter(w io.Writer, encodingName string) (io.WriteCloser, error) {
	if isAuto(encodingName) || isUTF8(encodingName) {
		return nopCloser{w}, nil
	}
	enc, err := Lookup(encodingName)
	if err != nil {
		return nil, err
	}
	return transform.NewWriter(w, enc.NewEncoder()), nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func isAuto(name string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	return n == "" || n == EncodingAuto
}

func isUTF8(name string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	return n == EncodingUTF8 || n == "utf8" || n == "unicode-1-1-utf-8"
}

func invalidOffset(data []byte) int {
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return -1
}
