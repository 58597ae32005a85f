package sharecard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/atotto/clipboard"
	"github.com/aymanbagabas/go-osc52/v2"
	"github.com/rs/zerolog"

	"github.com/mrwolf/yojeum-server/internal/metrics"
)

const (
	msgCopied     = "✅ 문장이 복사되었습니다.\n원하는 곳에 붙여넣기하세요!"
	msgCopyFailed = "❌ 복사에 실패했습니다.\n수동으로 문장을 복사해주세요."
)

// ClipboardWriter is the primary clipboard API
type ClipboardWriter interface {
	WriteAll(text string) error
}

// SystemClipboard writes to the OS clipboard
type SystemClipboard struct{}

// WriteAll implements ClipboardWriter
func (SystemClipboard) WriteAll(text string) error {
	if clipboard.Unsupported {
		return errors.New("system clipboard unsupported")
	}
	return clipboard.WriteAll(text)
}

// Surface is a transient, invisible holder for the legacy copy path.
// Callers must Remove it once created, whatever else fails.
type Surface interface {
	Populate(text string) error
	Select() error
	Copy() error
	Remove() error
}

// SurfaceFactory creates surfaces
type SurfaceFactory interface {
	Create() (Surface, error)
}

// OSC52Surfaces copies by writing an OSC 52 escape sequence to a terminal
type OSC52Surfaces struct {
	Out io.Writer
	Dir string // temp dir for the backing file; "" means os.TempDir
}

// Create implements SurfaceFactory
func (f OSC52Surfaces) Create() (Surface, error) {
	if f.Out == nil {
		return nil, errors.New("osc52: no output")
	}
	file, err := os.CreateTemp(f.Dir, ".yojeum-copy-*")
	if err != nil {
		return nil, fmt.Errorf("osc52: creating surface: %w", err)
	}
	return &osc52Surface{out: f.Out, file: file}, nil
}

type osc52Surface struct {
	out      io.Writer
	file     *os.File
	selected string
}

func (s *osc52Surface) Populate(text string) error {
	if _, err := s.file.WriteString(text); err != nil {
		return fmt.Errorf("osc52: populate: %w", err)
	}
	return nil
}

func (s *osc52Surface) Select() error {
	data, err := os.ReadFile(s.file.Name())
	if err != nil {
		return fmt.Errorf("osc52: select: %w", err)
	}
	s.selected = string(data)
	return nil
}

func (s *osc52Surface) Copy() error {
	if _, err := osc52.New(s.selected).WriteTo(s.out); err != nil {
		return fmt.Errorf("osc52: copy: %w", err)
	}
	return nil
}

func (s *osc52Surface) Remove() error {
	name := s.file.Name()
	closeErr := s.file.Close()
	if err := os.Remove(name); err != nil {
		return fmt.Errorf("osc52: remove: %w", err)
	}
	return closeErr
}

// Copier copies the sentence as plain text
type Copier struct {
	Clipboard ClipboardWriter
	Surfaces  SurfaceFactory
	Notifier  Notifier
	Log       zerolog.Logger
}

// Copy tries the clipboard first and the legacy surface second
func (c *Copier) Copy(ctx context.Context, text string) error {
	notifier := c.Notifier
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if c.Clipboard != nil {
		err := c.Clipboard.WriteAll(text)
		if err == nil {
			metrics.ClipboardCopies.WithLabelValues("clipboard").Inc()
			notifier.Notify(LevelSuccess, msgCopied)
			return nil
		}
		c.Log.Debug().Err(err).Msg("clipboard unavailable, using legacy copy")
	}

	if err := c.legacyCopy(text); err != nil {
		c.Log.Error().Err(err).Msg("copy failed")
		metrics.ClipboardCopies.WithLabelValues("failed").Inc()
		notifier.Notify(LevelError, msgCopyFailed)
		return err
	}

	metrics.ClipboardCopies.WithLabelValues("legacy").Inc()
	notifier.Notify(LevelSuccess, msgCopied)
	return nil
}

func (c *Copier) legacyCopy(text string) error {
	if c.Surfaces == nil {
		return errors.New("no legacy copy surface available")
	}

	s, err := c.Surfaces.Create()
	if err != nil {
		return err
	}
	defer func() {
		if rmErr := s.Remove(); rmErr != nil {
			c.Log.Warn().Err(rmErr).Msg("removing copy surface")
		}
	}()

	if err := s.Populate(text); err != nil {
		return err
	}
	if err := s.Select(); err != nil {
		return err
	}
	return s.Copy()
}
