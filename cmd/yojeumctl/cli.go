package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/mrwolf/yojeum-server/internal/db"
	"github.com/mrwolf/yojeum-server/internal/models"
	"github.com/mrwolf/yojeum-server/internal/sharecard"
	"github.com/mrwolf/yojeum-server/internal/summary"
	"github.com/mrwolf/yojeum-server/internal/vault"
)

type letterGenerator interface {
	GenerateNow(ctx context.Context, date string) (string, error)
}

// cliEnv carries everything the commands touch
type cliEnv struct {
	db        *db.DB
	vault     *vault.Vault
	summaries *summary.Service
	fonts     *sharecard.FontSet
	sharer    sharecard.Sharer
	letters   letterGenerator
	clipboard sharecard.ClipboardWriter
	surfaces  sharecard.SurfaceFactory
	loc       *time.Location
	now       func() time.Time
	log       zerolog.Logger
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(env *cliEnv) *cli.App {
	app := &cli.App{
		Name:    "yojeumctl",
		Usage:   "Local tools for the 요즘 어때? journal",
		Version: Version,
		Commands: []*cli.Command{
			recordCmd(env),
			recordsCmd(env),
			summaryCmd(env),
			cardCmd(env),
			copyCmd(env),
			shareCmd(env),
			downloadCmd(env),
			letterCmd(env),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// recordCmd creates the record command.
func recordCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:      "record",
		Usage:     "Save the entry for a day",
		ArgsUsage: "[date]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "energy", Aliases: []string{"e"}, Required: true, Usage: "low|neutral|high (or 낮음|보통|높음)"},
			&cli.StringFlag{Name: "tags", Aliases: []string{"t"}, Usage: "Comma-separated tags"},
			&cli.StringFlag{Name: "memo", Aliases: []string{"m"}, Usage: "Free-form memo"},
		},
		Action: func(c *cli.Context) error {
			date, err := env.dateArg(c)
			if err != nil {
				return outputError(err)
			}
			energy, err := models.ParseEnergy(c.String("energy"))
			if err != nil {
				return outputError(err)
			}

			rec := models.DailyRecord{
				Date:      date,
				Energy:    energy,
				Tags:      parseTags(c.String("tags")),
				Memo:      c.String("memo"),
				UpdatedAt: env.now(),
			}
			if rec.Tags == nil {
				rec.Tags = []string{}
			}
			if err := env.db.UpsertRecord(rec); err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, rec)
		},
	}
}

// recordsCmd creates the records command.
func recordsCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:  "records",
		Usage: "List saved entries, newest first",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "since", Usage: "Only entries on or after this date"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: 30, Usage: "Maximum entries"},
		},
		Action: func(c *cli.Context) error {
			since := c.String("since")
			if since != "" {
				if _, err := models.ParseDateKey(since, env.loc); err != nil {
					return outputError(fmt.Errorf("--since must be YYYY-MM-DD"))
				}
			}
			recs, err := env.db.ListRecords(since, c.Int("limit"))
			if err != nil {
				return outputError(err)
			}
			if recs == nil {
				recs = []models.DailyRecord{}
			}
			return outputJSON(c.App.Writer, models.RecordsResponse{Records: recs})
		},
	}
}

// summaryCmd creates the summary command.
func summaryCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:      "summary",
		Usage:     "Print the sentence for a day",
		ArgsUsage: "[date]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Print date, sentence and mode as JSON"},
		},
		Action: func(c *cli.Context) error {
			date, res, err := env.summarize(c)
			if err != nil {
				return outputError(err)
			}
			if c.Bool("json") {
				return outputJSON(c.App.Writer, models.SummaryResponse{
					Date:     date,
					Sentence: res.Sentence,
					Mode:     string(res.Mode),
				})
			}
			_, err = fmt.Fprintln(c.App.Writer, res.Sentence)
			return err
		},
	}
}

// cardCmd creates the card command.
func cardCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:      "card",
		Usage:     "Render the share card to a PNG file",
		ArgsUsage: "[date]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output path (defaults to the dated card name)"},
		},
		Action: func(c *cli.Context) error {
			_, card, err := env.compose(c)
			if err != nil {
				return outputError(err)
			}
			out := c.String("out")
			if out == "" {
				out = sharecard.DownloadName(env.now())
			}
			if err := vault.WriteFileAtomic(out, card.PNG); err != nil {
				return outputError(err)
			}
			_, err = fmt.Fprintln(c.App.Writer, out)
			return err
		},
	}
}

// copyCmd creates the copy command.
func copyCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:      "copy",
		Usage:     "Copy the sentence to the clipboard",
		ArgsUsage: "[date]",
		Action: func(c *cli.Context) error {
			_, res, err := env.summarize(c)
			if err != nil {
				return outputError(err)
			}
			copier := &sharecard.Copier{
				Clipboard: env.clipboard,
				Surfaces:  env.surfaces,
				Notifier:  printNotifier{w: c.App.ErrWriter},
				Log:       env.log,
			}
			if err := copier.Copy(c.Context, res.Sentence); err != nil {
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}

// shareCmd creates the share command.
func shareCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:      "share",
		Usage:     "Share the card, downloading it when sharing is unavailable",
		ArgsUsage: "[date]",
		Action: func(c *cli.Context) error {
			date, card, err := env.compose(c)
			if err != nil {
				return outputError(err)
			}

			rec := &sharecard.Recorder{}
			composer := env.composer(sharecard.MultiNotifier{rec, printNotifier{w: c.App.ErrWriter}})
			res, shareErr := composer.Share(c.Context, card)

			resp := models.ShareResponse{
				Strategy: string(res.Strategy),
				Outcome:  string(res.Outcome),
				File:     env.vault.Rel(res.File),
				Messages: rec.Texts(),
			}
			resp.ShareID = env.logShare(date, res, shareErr)

			if err := outputJSON(c.App.Writer, resp); err != nil {
				return err
			}
			if shareErr != nil {
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}

// downloadCmd creates the download command.
func downloadCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:      "download",
		Usage:     "Save the card into the vault's Cards folder",
		ArgsUsage: "[date]",
		Action: func(c *cli.Context) error {
			date, card, err := env.compose(c)
			if err != nil {
				return outputError(err)
			}

			composer := env.composer(printNotifier{w: c.App.ErrWriter})
			path, err := composer.Download(c.Context, card)
			res := sharecard.ShareResult{
				Strategy: sharecard.StrategyDownload,
				Outcome:  sharecard.OutcomeDownloaded,
				File:     path,
			}
			if err != nil {
				res.Outcome = sharecard.OutcomeFailed
			}
			env.logShare(date, res, err)
			if err != nil {
				return cli.Exit("", 1)
			}

			_, err = fmt.Fprintln(c.App.Writer, env.vault.Rel(path))
			return err
		},
	}
}

// letterCmd creates the letter command.
func letterCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:      "letter",
		Usage:     "Write the day's letter note into the vault now",
		ArgsUsage: "[date]",
		Action: func(c *cli.Context) error {
			date, err := env.dateArg(c)
			if err != nil {
				return outputError(err)
			}
			path, err := env.letters.GenerateNow(c.Context, date)
			if err != nil {
				return outputError(err)
			}
			_, err = fmt.Fprintln(c.App.Writer, path)
			return err
		},
	}
}

// dateArg returns the first argument as a day key, or today
func (env *cliEnv) dateArg(c *cli.Context) (string, error) {
	if c.NArg() == 0 {
		return models.DateKey(env.now().In(env.loc)), nil
	}
	date := c.Args().First()
	if _, err := models.ParseDateKey(date, env.loc); err != nil {
		return "", fmt.Errorf("date must be YYYY-MM-DD, got %q", date)
	}
	return date, nil
}

func (env *cliEnv) summarize(c *cli.Context) (string, summary.Result, error) {
	date, err := env.dateArg(c)
	if err != nil {
		return "", summary.Result{}, err
	}
	res, err := env.summaries.Summarize(c.Context, date)
	if errors.Is(err, summary.ErrNoRecord) {
		return "", res, fmt.Errorf("no record for %s", date)
	}
	return date, res, err
}

func (env *cliEnv) compose(c *cli.Context) (string, sharecard.Card, error) {
	date, res, err := env.summarize(c)
	if err != nil {
		return "", sharecard.Card{}, err
	}
	card, err := sharecard.Compose(res.Sentence, env.fonts)
	return date, card, err
}

func (env *cliEnv) composer(n sharecard.Notifier) *sharecard.Composer {
	return &sharecard.Composer{
		Sharer:     env.sharer,
		Downloader: env.vault.Downloads(),
		Notifier:   n,
		Clock:      env.now,
		Log:        env.log,
	}
}

// logShare records the action in the database and the vault log; failures
// here never fail the command
func (env *cliEnv) logShare(date string, res sharecard.ShareResult, shareErr error) string {
	errMsg := ""
	switch {
	case shareErr != nil:
		errMsg = shareErr.Error()
	case res.ShareErr != nil:
		errMsg = res.ShareErr.Error()
	}
	file := ""
	if res.File != "" {
		file = filepath.Base(res.File)
	}

	id, err := env.db.LogShare(date, string(res.Strategy), string(res.Outcome), file, errMsg)
	if err != nil {
		env.log.Warn().Err(err).Msg("logging share to database")
	}
	if err := env.vault.LogShare(vault.ShareLog{
		ID:       id,
		Date:     date,
		Strategy: string(res.Strategy),
		Outcome:  string(res.Outcome),
		File:     file,
		Error:    errMsg,
	}); err != nil {
		env.log.Warn().Err(err).Msg("logging share to vault")
	}
	return id
}

// printNotifier shows toasts as lines on the terminal
type printNotifier struct {
	w io.Writer
}

func (p printNotifier) Notify(level sharecard.Level, message string) {
	if p.w == nil {
		return
	}
	if level == sharecard.LevelError {
		fmt.Fprintln(p.w, "error:", message)
		return
	}
	fmt.Fprintln(p.w, message)
}

// outputJSON writes v as indented JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError converts an error to a cli exit error.
func outputError(err error) error {
	return cli.Exit(err.Error(), 1)
}

// parseTags splits a comma-separated string into tags.
func parseTags(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}
