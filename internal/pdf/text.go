package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/Lllllllleong/arabicpdftranslator/internal/models"
	lpdf "github.com/ledongthuc/pdf"
)

type textExtraction struct {
	reader *lpdf.Reader
	total  int
}

func openText(data []byte, limit int) (*textExtraction, error) {
	reader, err := newReader(data)
	if err != nil {
		return nil, err
	}
	return &textExtraction{reader: reader, total: clampPages(reader.NumPage(), limit)}, nil
}

// newReader guards against the parser panicking on damaged cross-reference tables.
func newReader(data []byte) (r *lpdf.Reader, err error) {
	defer func() {
		if p := recover(); p != nil {
			r, err = nil, fmt.Errorf("failed to open PDF: %v", p)
		}
	}()
	r, err = lpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	return r, nil
}

func (t *textExtraction) Total() int { return t.total }

// Page joins the page's text fragments with single spaces in content
// stream order. Each Tj, TJ, ' or " operator yields one fragment; empty
// fragments are dropped. Geometry is ignored so right-to-left lines keep
// their drawing order.
func (t *textExtraction) Page(ctx context.Context, index int) (res models.PageResult, err error) {
	res.Index = index
	if err := ctx.Err(); err != nil {
		return res, err
	}
	if index < 1 || index > t.total {
		return res, fmt.Errorf("page %d out of range 1..%d", index, t.total)
	}

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("failed to read page %d: %v", index, p)
		}
	}()

	page := t.reader.Page(index)
	if page.V.IsNull() || page.V.Key("Contents").Kind() == lpdf.Null {
		return res, nil
	}
	res.Text = strings.Join(pageFragments(page), " ")
	return res, nil
}

func pageFragments(page lpdf.Page) []string {
	fonts := make(map[string]lpdf.TextEncoding)
	for _, name := range page.Fonts() {
		fonts[name] = page.Font(name).Encoder()
	}

	var enc lpdf.TextEncoding
	var fragments []string
	show := func(raw string) {
		s := raw
		if enc != nil {
			s = enc.Decode(raw)
		}
		if s = strings.TrimSpace(s); s != "" {
			fragments = append(fragments, s)
		}
	}

	lpdf.Interpret(page.V.Key("Contents"), func(stk *lpdf.Stack, op string) {
		args := make([]lpdf.Value, stk.Len())
		for i := len(args) - 1; i >= 0; i-- {
			args[i] = stk.Pop()
		}
		if len(args) == 0 {
			return
		}
		switch op {
		case "Tf":
			enc = fonts[args[0].Name()]
		case "Tj", "'", "\"":
			show(args[len(args)-1].RawString())
		case "TJ":
			var b strings.Builder
			arr := args[0]
			for i := 0; i < arr.Len(); i++ {
				if v := arr.Index(i); v.Kind() == lpdf.String {
					b.WriteString(v.RawString())
				}
			}
			show(b.String())
		}
	})
	return fragments
}

func (t *textExtraction) Close() error { return nil }
