package portfolio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"StockTracker/internal/model"
)

// FileBackend stores the portfolio as a single JSON object keyed by ticker.
type FileBackend struct {
	Path string
}

// NewFileBackend returns a backend for the given file path.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{Path: path}
}

func (b *FileBackend) Name() string { return "json" }

func (b *FileBackend) Close() error { return nil }

// Load reads the state file. A missing file yields an empty portfolio.
func (b *FileBackend) Load() (*model.Portfolio, error) {
	data, err := os.ReadFile(b.Path)
	if err != nil {
		if os.IsNotExist(err) {
			log.WithField("file", b.Path).Info("no portfolio file, starting empty")
			return model.NewPortfolio(), nil
		}
		return nil, fmt.Errorf("read portfolio: %w", err)
	}
	p, err := DecodeState(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Path, err)
	}
	return p, nil
}

// Save overwrites the state file through a temp file and rename, so a crash
// leaves either the previous or the new content on disk.
func (b *FileBackend) Save(p *model.Portfolio) error {
	data, err := EncodeState(p)
	if err != nil {
		return err
	}
	return writeFileAtomic(b.Path, data, 0644)
}

// EncodeState renders the portfolio as indented JSON with tickers in storage
// order. Equal portfolios always encode to equal bytes.
func EncodeState(p *model.Portfolio) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, pos := range p.Positions() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(pos.Ticker)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", pos.Ticker, err)
		}
		val, err := json.Marshal(pos)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", pos.Ticker, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "    "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// storedPosition mirrors the on-disk shape; pointers detect missing fields.
type storedPosition struct {
	Shares        *int64   `json:"shares"`
	PurchasePrice *float64 `json:"purchase_price"`
}

// DecodeState parses and validates persisted state. Every failure wraps
// ErrStateUnreadable.
func DecodeState(data []byte) (*model.Portfolio, error) {
	p, err := decodeState(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStateUnreadable, err)
	}
	return p, nil
}

func decodeState(data []byte) (*model.Portfolio, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	// The state is a single object; pull off the opening token and check it.
	t, err := dec.Token()
	if err == io.EOF {
		return nil, fmt.Errorf("empty document")
	}
	if err != nil {
		return nil, err
	}
	if d, ok := t.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected '{', got '%v' (%T)", t, t)
	}

	p := model.NewPortfolio()
	for dec.More() {
		t, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := t.(string)
		if !ok {
			return nil, fmt.Errorf("expected ticker key, got '%v' (%T)", t, t)
		}

		var sp storedPosition
		if err := dec.Decode(&sp); err != nil {
			return nil, fmt.Errorf("%q: %w", key, err)
		}
		pos, err := sp.position(key)
		if err != nil {
			return nil, err
		}
		if _, dup := p.Get(pos.Ticker); dup {
			return nil, fmt.Errorf("duplicate ticker %q", pos.Ticker)
		}
		p.Set(pos)
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after portfolio object")
	}
	return p, nil
}

func (sp storedPosition) position(key string) (model.Position, error) {
	ticker := model.NormalizeTicker(key)
	switch {
	case ticker == "":
		return model.Position{}, fmt.Errorf("empty ticker")
	case sp.Shares == nil:
		return model.Position{}, fmt.Errorf("%q: missing shares", key)
	case sp.PurchasePrice == nil:
		return model.Position{}, fmt.Errorf("%q: missing purchase_price", key)
	case *sp.Shares < 0:
		return model.Position{}, fmt.Errorf("%q: negative shares %d", key, *sp.Shares)
	case *sp.PurchasePrice < 0 || math.IsInf(*sp.PurchasePrice, 0):
		return model.Position{}, fmt.Errorf("%q: invalid purchase_price %v", key, *sp.PurchasePrice)
	}
	return model.Position{Ticker: ticker, Shares: *sp.Shares, PurchasePrice: *sp.PurchasePrice}, nil
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(tmp)
		}
	}()

	if _, err = f.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = f.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Chmod(tmp, perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	// the file is already replaced, a failed dir sync only loses durability
	if serr := syncDir(dir); serr != nil {
		log.WithError(serr).WithField("dir", dir).Warn("sync state dir")
	}
	return nil
}

// syncDir flushes the directory entry written by a rename.
func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}
