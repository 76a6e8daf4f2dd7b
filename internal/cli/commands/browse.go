package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/spf13/cobra"

	"github.com/fieldradar/fieldradar/internal/cli/ui"
	"github.com/fieldradar/fieldradar/internal/report"
)

// prompter asks the operator to choose among options
type prompter interface {
	Select(message string, options []string, def string) (string, error)
}

type surveyPrompter struct{}

func newSurveyPrompter(cmd *cobra.Command) prompter {
	return surveyPrompter{}
}

func (surveyPrompter) Select(message string, options []string, def string) (string, error) {
	prompt := &survey.Select{
		Message:  message,
		Options:  options,
		PageSize: 15,
	}
	if def != "" {
		prompt.Default = def
	}

	var answer string
	if err := survey.AskOne(prompt, &answer); err != nil {
		return "", err
	}
	return answer, nil
}

// Browser menu entries
const (
	browseList      = "List records with value summaries"
	browsePage      = "Page through records"
	browseNextPage  = "Next page"
	browsePrevPage  = "Previous page"
	browseOtherKey  = "Pick another key"
	browseOtherType = "Pick another content type"
	browseQuit      = "Quit"
)

func newBrowseCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Interactively browse content types, keys and records",
		Long: `Pick a content type, then one of its metadata keys, then list or page
through the records that use it. Press Ctrl+C to leave at any prompt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			b := &browser{
				app:     a,
				cmd:     cmd,
				out:     cmd.OutOrStdout(),
				prompt:  opts.newPrompter(cmd),
				noColor: opts.noColor,
			}
			err = b.run()
			if errors.Is(err, terminal.InterruptErr) {
				return nil
			}
			return err
		},
	}
}

// browser walks the operator from content type to key to records
type browser struct {
	app     *app
	cmd     *cobra.Command
	out     io.Writer
	prompt  prompter
	noColor bool
}

func (b *browser) run() error {
	ctx := b.cmd.Context()

	types, err := b.app.service.ContentTypes(ctx)
	if err != nil {
		return err
	}
	if len(types) == 0 {
		fmt.Fprintln(b.out, ui.Empty("content types", b.noColor))
		return nil
	}

	contentType := b.app.cfg.Report.DefaultContentType
	for {
		contentType, err = b.prompt.Select("Content type:", types, defaultOption(types, contentType))
		if err != nil {
			return err
		}

		next, err := b.browseType(contentType)
		if err != nil {
			return err
		}
		if next == browseQuit {
			return nil
		}
	}
}

// browseType runs the key loop for one content type and returns the
// operator's way out: browseOtherType or browseQuit.
func (b *browser) browseType(contentType string) (string, error) {
	ctx := b.cmd.Context()

	rows, err := b.app.service.Keys(ctx, contentType)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		fmt.Fprintln(b.out, ui.Empty(fmt.Sprintf("metadata keys for %q", contentType), b.noColor))
		return b.prompt.Select("Next:", []string{browseOtherType, browseQuit}, "")
	}

	options := make([]string, len(rows))
	byOption := make(map[string]string, len(rows))
	for i, r := range rows {
		options[i] = keyOption(r)
		byOption[options[i]] = r.Key
	}

	for {
		picked, err := b.prompt.Select("Metadata key:", options, "")
		if err != nil {
			return "", err
		}
		key := byOption[picked]

		view, err := b.prompt.Select("Show:", []string{browseList, browsePage}, browsePage)
		if err != nil {
			return "", err
		}

		var next string
		if view == browseList {
			next, err = b.showList(contentType, key)
		} else {
			next, err = b.showPages(contentType, key)
		}
		if err != nil {
			return "", err
		}
		if next != browseOtherKey {
			return next, nil
		}
	}
}

func (b *browser) showList(contentType, key string) (string, error) {
	list, err := b.app.service.ShowPosts(b.cmd.Context(), contentType, key)
	if err != nil {
		return "", err
	}
	if list.Empty {
		fmt.Fprintln(b.out, ui.Empty(fmt.Sprintf("%s records using %q", contentType, key), b.noColor))
	} else {
		renderPosts(b.out, list, b.noColor)
	}
	return b.prompt.Select("Next:", []string{browseOtherKey, browseOtherType, browseQuit}, "")
}

func (b *browser) showPages(contentType, key string) (string, error) {
	defaults := b.app.cfg.ReportDefaults()
	page := 1

	for {
		result, err := b.app.service.ShowMeta(b.cmd.Context(), contentType, key, page, defaults.PerPage)
		if err != nil {
			return "", err
		}
		if result.Empty {
			fmt.Fprintln(b.out, ui.Empty(fmt.Sprintf("%s records using %q", contentType, key), b.noColor))
			return b.prompt.Select("Next:", []string{browseOtherKey, browseOtherType, browseQuit}, "")
		}
		renderPage(b.out, result, b.noColor)

		var options []string
		if result.Page < result.TotalPages {
			options = append(options, browseNextPage)
		}
		if result.Page > 1 {
			options = append(options, browsePrevPage)
		}
		options = append(options, browseOtherKey, browseOtherType, browseQuit)

		next, err := b.prompt.Select("Next:", options, "")
		if err != nil {
			return "", err
		}
		switch next {
		case browseNextPage:
			page = result.Page + 1
		case browsePrevPage:
			page = result.Page - 1
		default:
			return next, nil
		}
	}
}

func keyOption(r report.KeyUsage) string {
	var b strings.Builder
	b.WriteString(r.Key)
	if r.Label != "" && r.Label != r.Key {
		fmt.Fprintf(&b, " \"%s\"", r.Label)
	}
	fmt.Fprintf(&b, " (%d used)", r.UsedCount)
	return b.String()
}

// defaultOption returns want when it is one of options, else ""
func defaultOption(options []string, want string) string {
	for _, o := range options {
		if o == want {
			return want
		}
	}
	return ""
}
