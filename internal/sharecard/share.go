package sharecard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrwolf/yojeum-server/internal/metrics"
)

// ErrShareCanceled means the user dismissed the share; it never triggers a download
var ErrShareCanceled = errors.New("share canceled")

const (
	FilePrefix        = "yojeom-eottae"
	ShareFallbackName = FilePrefix + "-summary.png"
	ShareTitle        = "요즘 어때? - 오늘의 한 문장"

	msgDownloaded     = "✅ 이미지가 다운로드되었습니다.\n다운로드 폴더를 확인해주세요!"
	msgDownloadFailed = "❌ 이미지 다운로드에 실패했습니다."
	msgSeparateImage  = "💡 이미지는 별도로 다운로드됩니다."
)

// SharePayload is what gets handed to a native share target.
// File is nil for a text-only share.
type SharePayload struct {
	Title    string
	Text     string
	File     []byte
	FileName string
	MIME     string
}

// Sharer is a native share target
type Sharer interface {
	CanShareFiles(mime string) bool
	CanShareText() bool
	Share(ctx context.Context, p SharePayload) error
}

// Downloader saves a file locally and returns where it went
type Downloader interface {
	Save(name string, data []byte) (string, error)
}

// Strategy is the delivery path chosen by Probe
type Strategy string

const (
	StrategyShareFile Strategy = "share_file"
	StrategyShareText Strategy = "share_text"
	StrategyDownload  Strategy = "download"
)

// Outcome of a share action
type Outcome string

const (
	OutcomeShared     Outcome = "shared"
	OutcomeCanceled   Outcome = "canceled"
	OutcomeDownloaded Outcome = "downloaded"
	OutcomeFailed     Outcome = "failed"
)

// Probe picks the single strategy the platform supports, best first
func Probe(s Sharer, mime string) Strategy {
	switch {
	case s == nil:
		return StrategyDownload
	case s.CanShareFiles(mime):
		return StrategyShareFile
	case s.CanShareText():
		return StrategyShareText
	default:
		return StrategyDownload
	}
}

// ShareResult describes what a share action did
type ShareResult struct {
	Strategy Strategy
	Outcome  Outcome
	File     string // local path when a download happened
	ShareErr error  // non-cancel share failure that led to the fallback
}

// Composer delivers rendered cards
type Composer struct {
	Sharer     Sharer
	Downloader Downloader
	Notifier   Notifier
	Clock      func() time.Time
	Log        zerolog.Logger
}

func (c *Composer) notifier() Notifier {
	if c.Notifier == nil {
		return nopNotifier{}
	}
	return c.Notifier
}

func (c *Composer) now() time.Time {
	if c.Clock == nil {
		return time.Now()
	}
	return c.Clock()
}

// DownloadName is the dated file name used for explicit downloads
func DownloadName(t time.Time) string {
	return fmt.Sprintf("%s-%s.png", FilePrefix, t.Format("20060102"))
}

// Share delivers the card through the best available strategy
func (c *Composer) Share(ctx context.Context, card Card) (ShareResult, error) {
	strategy := Probe(c.Sharer, card.MIME)
	res, err := c.share(ctx, strategy, card)
	metrics.ShareOutcomes.WithLabelValues(string(res.Strategy), string(res.Outcome)).Inc()
	return res, err
}

func (c *Composer) share(ctx context.Context, strategy Strategy, card Card) (ShareResult, error) {
	res := ShareResult{Strategy: strategy}

	switch strategy {
	case StrategyShareFile:
		err := c.Sharer.Share(ctx, SharePayload{
			Title:    ShareTitle,
			Text:     card.Sentence,
			File:     card.PNG,
			FileName: ShareFallbackName,
			MIME:     card.MIME,
		})
		if err == nil {
			res.Outcome = OutcomeShared
			return res, nil
		}
		if isCancel(err) {
			res.Outcome = OutcomeCanceled
			return res, nil
		}
		c.Log.Warn().Err(err).Msg("file share failed, falling back to download")
		res.ShareErr = err
		return c.fallbackDownload(res, card)

	case StrategyShareText:
		err := c.Sharer.Share(ctx, SharePayload{Title: ShareTitle, Text: card.Sentence})
		if err != nil && isCancel(err) {
			res.Outcome = OutcomeCanceled
			return res, nil
		}
		if err != nil {
			c.Log.Warn().Err(err).Msg("text share failed, falling back to download")
			res.ShareErr = err
		} else {
			// only the text went out, so the image is saved alongside
			c.notifier().Notify(LevelInfo, msgSeparateImage)
		}
		return c.fallbackDownload(res, card)

	default:
		path, err := c.Download(ctx, card)
		res.File = path
		if err != nil {
			res.Outcome = OutcomeFailed
			return res, err
		}
		res.Outcome = OutcomeDownloaded
		return res, nil
	}
}

func (c *Composer) fallbackDownload(res ShareResult, card Card) (ShareResult, error) {
	path, err := c.save(ShareFallbackName, card.PNG)
	res.File = path
	if err != nil {
		res.Outcome = OutcomeFailed
		return res, err
	}
	if res.ShareErr == nil {
		res.Outcome = OutcomeShared
	} else {
		res.Outcome = OutcomeDownloaded
	}
	return res, nil
}

// Download saves the card under the dated name
func (c *Composer) Download(ctx context.Context, card Card) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return c.save(DownloadName(c.now()), card.PNG)
}

func (c *Composer) save(name string, data []byte) (string, error) {
	if c.Downloader == nil {
		err := errors.New("no downloader configured")
		c.Log.Error().Err(err).Str("file", name).Msg("download failed")
		c.notifier().Notify(LevelError, msgDownloadFailed)
		return "", err
	}
	if len(data) == 0 {
		err := errors.New("card has no image data")
		c.Log.Error().Err(err).Str("file", name).Msg("download failed")
		c.notifier().Notify(LevelError, msgDownloadFailed)
		return "", err
	}

	path, err := c.Downloader.Save(name, data)
	if err != nil {
		c.Log.Error().Err(err).Str("file", name).Msg("download failed")
		c.notifier().Notify(LevelError, msgDownloadFailed)
		return "", fmt.Errorf("saving %s: %w", name, err)
	}

	c.Log.Info().Str("file", path).Msg("card downloaded")
	c.notifier().Notify(LevelSuccess, msgDownloaded)
	return path, nil
}

func isCancel(err error) bool {
	return errors.Is(err, ErrShareCanceled) || errors.Is(err, context.Canceled)
}
