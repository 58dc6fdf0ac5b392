package ocr

import (
	"bytes"
	"context"
	"encoding/hex"
	"io"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rotisserie/eris"
)

// PdfCPU extracts text in-process by reading page content streams with
// pdfcpu. It reads literal and hex string operands of the text operators;
// scanned pages yield empty text and need the mistral provider.
type PdfCPU struct{}

// NewPdfCPU creates a PdfCPU extractor.
func NewPdfCPU() *PdfCPU {
	return &PdfCPU{}
}

// ExtractText parses the PDF and returns one line of text per page.
func (p *PdfCPU) ExtractText(ctx context.Context, pdf []byte) (string, error) {
	if len(pdf) == 0 {
		return "", eris.New("ocr: empty PDF")
	}

	conf := model.NewDefaultConfiguration()
	pctx, err := api.ReadValidateAndOptimize(bytes.NewReader(pdf), conf)
	if err != nil {
		return "", eris.Wrap(err, "ocr: pdfcpu read")
	}

	pages := make([]string, 0, pctx.PageCount)
	for pageNr := 1; pageNr <= pctx.PageCount; pageNr++ {
		if err := ctx.Err(); err != nil {
			return "", eris.Wrap(err, "ocr: pdfcpu extract")
		}
		pages = append(pages, pageText(pctx, pageNr))
	}
	return strings.Join(pages, "\n"), nil
}

func pageText(pctx *model.Context, pageNr int) string {
	r, err := pdfcpu.ExtractPageContent(pctx, pageNr)
	if err != nil || r == nil {
		return ""
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return ""
	}
	return textFromStream(data)
}

// textFromStream collects the operands of the text-showing operators
// (Tj, TJ, ' and ") in a content stream. The stream is scanned token by
// token, so operators need not sit at the end of a line.
func textFromStream(data []byte) string {
	var (
		sb      strings.Builder
		pending []string
		inArray bool
	)

	flush := func() {
		for _, p := range pending {
			sb.WriteString(p)
		}
		pending = pending[:0]
	}

	for i := 0; i < len(data); {
		c := data[i]
		switch {
		case isPDFSpace(c):
			i++
		case c == '%':
			for i < len(data) && data[i] != '\n' && data[i] != '\r' {
				i++
			}
		case c == '(':
			raw, next := scanLiteral(data, i)
			pending = append(pending, decodePDFString(raw))
			i = next
		case c == '<' && i+1 < len(data) && data[i+1] == '<':
			i += 2
		case c == '>' && i+1 < len(data) && data[i+1] == '>':
			i += 2
		case c == '<':
			end := bytes.IndexByte(data[i:], '>')
			if end < 0 {
				i = len(data)
				continue
			}
			pending = append(pending, decodeHexString(data[i+1:i+end]))
			i += end + 1
		case c == '/':
			// Names are operands of non-text operators.
			i++
			for i < len(data) && !isPDFSpace(data[i]) && !isPDFDelim(data[i]) {
				i++
			}
		case c == '[':
			inArray = true
			i++
		case c == ']':
			inArray = false
			i++
		default:
			start := i
			for i < len(data) && !isPDFSpace(data[i]) && !isPDFDelim(data[i]) {
				i++
			}
			if i == start {
				i++
				continue
			}
			tok := string(data[start:i])
			if inArray {
				// Large negative kerning inside TJ separates words.
				if n, err := strconv.ParseFloat(tok, 64); err == nil && n < -200 {
					pending = append(pending, " ")
				}
				continue
			}
			switch tok {
			case "Tj", "TJ":
				flush()
			case "'", `"`:
				sb.WriteByte(' ')
				flush()
			case "Td", "TD", "T*", "BT", "ET":
				sb.WriteByte(' ')
				pending = pending[:0]
			default:
				if !isNumber(tok) {
					pending = pending[:0]
				}
			}
		}
	}

	return collapseSpace(sb.String())
}

func isPDFSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', 0:
		return true
	}
	return false
}

func isPDFDelim(c byte) bool {
	return strings.IndexByte("()<>[]{}/%", c) >= 0
}

func isNumber(tok string) bool {
	_, err := strconv.ParseFloat(tok, 64)
	return err == nil
}

// scanLiteral returns the body of the literal string opening at data[start]
// and the index just past its closing parenthesis. Nested balanced
// parentheses are part of the body.
func scanLiteral(data []byte, start int) ([]byte, int) {
	depth := 0
	for i := start; i < len(data); i++ {
		switch data[i] {
		case '\\':
			i++
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return data[start+1 : i], i + 1
			}
		}
	}
	return data[start+1:], len(data)
}

// decodePDFString handles the escape sequences of PDF literal strings.
func decodePDFString(raw []byte) string {
	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			out = append(out, raw[i])
			continue
		}
		i++
		switch c := raw[i]; c {
		case 'n':
			out = append(out, '\n')
		case 'r':
			out = append(out, '\r')
		case 't':
			out = append(out, '\t')
		case 'b', 'f':
			out = append(out, ' ')
		case '\n':
			// Line continuation.
		case '\\', '(', ')':
			out = append(out, c)
		default:
			if c < '0' || c > '7' {
				out = append(out, c)
				continue
			}
			// Up to three octal digits.
			val := int(c - '0')
			for n := 0; n < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; n++ {
				i++
				val = val*8 + int(raw[i]-'0')
			}
			out = append(out, byte(val))
		}
	}
	return textString(out)
}

// decodeHexString decodes a <...> string body. Whitespace is ignored and a
// missing final digit counts as 0.
func decodeHexString(body []byte) string {
	digits := make([]byte, 0, len(body)+1)
	for _, c := range body {
		if !isPDFSpace(c) {
			digits = append(digits, c)
		}
	}
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, len(digits)/2)
	if _, err := hex.Decode(out, digits); err != nil {
		return ""
	}
	return textString(out)
}

// textString maps PDF string bytes to UTF-8: UTF-16BE when the string opens
// with a byte order mark, otherwise one rune per byte (Latin-1).
func textString(b []byte) string {
	if len(b) >= 2 && b[0] == 0xFE && b[1] == 0xFF {
		units := make([]uint16, 0, len(b)/2)
		for i := 2; i+1 < len(b); i += 2 {
			units = append(units, uint16(b[i])<<8|uint16(b[i+1]))
		}
		return string(utf16.Decode(units))
	}
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}
	return string(runes)
}

func collapseSpace(text string) string {
	var sb strings.Builder
	prevSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			if !prevSpace && sb.Len() > 0 {
				sb.WriteByte(' ')
				prevSpace = true
			}
		} else if unicode.IsPrint(r) {
			sb.WriteRune(r)
			prevSpace = false
		}
	}
	return strings.TrimSpace(sb.String())
}
