package charset

import (
	"bytes"
	"errors"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/transform"
)

// Stateless encodings whose tables come from golang.org/x/text.

func init() {
	for _, enc := range charmap.All {
		cm, ok := enc.(*charmap.Charmap)
		if !ok {
			continue
		}
		name := preferredName(enc)
		if name == "" {
			name = cm.String()
		}
		if _, dup := charsets[name]; dup {
			continue
		}
		names := []string{cm.String()}
		if long, err := ianaindex.IANA.Name(enc); err == nil && long != "" && long != name {
			names = append(names, long)
		}
		Register(FromEncoding(name, enc, names...))
	}

	Register(FromEncoding("Shift_JIS", japanese.ShiftJIS, "SJIS", "MS_Kanji", "csShiftJIS", "CP932", "Windows-31J"))
	Register(FromEncoding("EUC-JP", japanese.EUCJP, "eucJP", "csEUCPkdFmtJapanese"))
	Register(FromEncoding("EUC-KR", korean.EUCKR, "eucKR", "csEUCKR", "CP949", "UHC", "KS_C_5601-1987"))
	Register(FromEncoding("GBK", simplifiedchinese.GBK, "CP936", "MS936", "Windows-936", "GB2312", "csGB2312", "EUC-CN"))
	Register(FromEncoding("GB18030", simplifiedchinese.GB18030, "csGB18030"))
	Register(FromEncoding("Big5", traditionalchinese.Big5, "BIG-5", "CN-BIG5", "csBig5", "CP950"))
}

// FromEncoding wraps a stateless golang.org/x/text encoding as a Charset.
// Encodings that keep shift state (ISO-2022-JP, HZ-GB-2312) cannot be wrapped
// this way, since their transformers cannot refuse a character without
// changing state.
func FromEncoding(name string, e encoding.Encoding, aliases ...string) *Charset {
	repl := replacementBytes(e)
	return &Charset{
		Name:    name,
		Aliases: aliases,
		NewDecoder: func() Decoder {
			return &xtextDecoder{t: e.NewDecoder(), replacement: repl}
		},
		NewEncoder: func() Encoder {
			return &xtextEncoder{t: e.NewEncoder()}
		},
	}
}

// replacementBytes returns the encoding of U+FFFD in e, or nil if e cannot
// represent it. Decoders in x/text report invalid input by producing U+FFFD,
// so a decoded U+FFFD is only genuine if it came from these bytes.
func replacementBytes(e encoding.Encoding) []byte {
	var buf [16]byte
	n, _, err := e.NewEncoder().Transform(buf[:], []byte(string(utf8.RuneError)), true)
	if err != nil {
		return nil
	}
	return bytes.Clone(buf[:n])
}

type xtextDecoder struct {
	t           transform.Transformer
	replacement []byte
}

func (d *xtextDecoder) Decode(p []byte) (c rune, size int, status Status) {
	if len(p) == 0 {
		return 0, 0, NoRoom
	}

	// Offer growing destinations so that exactly one rune is produced.
	var buf [utf8.UTFMax]byte
	for n := 1; n <= utf8.UTFMax; n++ {
		d.t.Reset()
		nDst, nSrc, err := d.t.Transform(buf[:n], p, false)
		if nDst > 0 {
			c, _ = utf8.DecodeRune(buf[:nDst])
			if c == utf8.RuneError && !bytes.Equal(p[:nSrc], d.replacement) {
				return utf8.RuneError, max(nSrc, 1), InvalidChar
			}
			return c, nSrc, Success
		}
		switch {
		case errors.Is(err, transform.ErrShortDst):
			continue
		case errors.Is(err, transform.ErrShortSrc):
			return 0, 0, NoRoom
		case err != nil:
			return utf8.RuneError, max(nSrc, 1), InvalidChar
		case nSrc > 0:
			return 0, nSrc, StateOnly
		}
		return 0, 0, NoRoom
	}
	return utf8.RuneError, 1, InvalidChar
}

func (d *xtextDecoder) Advance() {}

type xtextEncoder struct {
	t transform.Transformer
}

func (e *xtextEncoder) EncodeRune(p []byte, c rune) (int, Status) {
	if !utf8.ValidRune(c) {
		return 0, InvalidChar
	}
	var src [utf8.UTFMax]byte
	n := utf8.EncodeRune(src[:], c)

	var buf [16]byte
	e.t.Reset()
	nDst, _, err := e.t.Transform(buf[:], src[:n], true)
	if err != nil {
		return 0, InvalidChar
	}
	if len(p) < nDst {
		return 0, NoRoom
	}
	return copy(p, buf[:nDst]), Success
}

func (e *xtextEncoder) Flush([]byte) (int, Status) { return 0, Success }

// preferredName returns the MIME name of enc, or its IANA name when it has no
// MIME name. It returns "" if enc is in neither index.
func preferredName(enc encoding.Encoding) string {
	if name, err := ianaindex.MIME.Name(enc); err == nil && name != "" {
		return name
	}
	if name, err := ianaindex.IANA.Name(enc); err == nil {
		return name
	}
	return ""
}

func lookupIANA(name string) *Charset {
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil
	}
	canonical := preferredName(enc)
	if canonical != "" {
		if cs := charsets[aliases[simplifyName(canonical)]]; cs != nil {
			return cs
		}
	} else {
		canonical = name
	}
	if enc == japanese.ISO2022JP || enc == simplifiedchinese.HZGB2312 {
		return nil
	}
	return FromEncoding(canonical, enc)
}
