package commands

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fieldradar/fieldradar/internal/cli/ui"
	"github.com/fieldradar/fieldradar/internal/report"
)

func newTypesCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List content types",
		Long:  "List the content types present in the database, without the platform's internal types.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			types, err := a.service.ContentTypes(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.format == formatJSON {
				return writeJSON(out, map[string]interface{}{"content_types": types})
			}
			if len(types) == 0 {
				fmt.Fprintln(out, ui.Empty("content types", opts.noColor))
				return nil
			}

			table := ui.NewTable(out, []string{"CONTENT TYPE"}, &ui.TableOptions{NoColor: opts.noColor})
			for _, t := range types {
				table.AddRow(t)
			}
			table.Render()
			return nil
		},
	}
}

func newKeysCommand(opts *rootOptions) *cobra.Command {
	var contentType string

	cmd := &cobra.Command{
		Use:   "keys",
		Short: "List metadata keys of a content type with usage counts",
		Long: `List every reportable metadata key of a content type together with its
field label and the number of records holding a meaningful value.`,
		Example: `  fieldradar keys --type post
  fieldradar keys --type product --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			if contentType == "" {
				contentType = a.cfg.Report.DefaultContentType
			}

			rows, err := a.service.Keys(ctx, contentType)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.format == formatJSON {
				return writeJSON(out, map[string]interface{}{"content_type": contentType, "keys": rows})
			}
			if len(rows) == 0 {
				warnUnknownType(ctx, cmd.ErrOrStderr(), a, contentType, opts.noColor)
				fmt.Fprintln(out, ui.Empty(fmt.Sprintf("metadata keys for %q", contentType), opts.noColor))
				return nil
			}
			renderKeys(out, contentType, rows, opts.noColor)
			return nil
		},
	}

	cmd.Flags().StringVarP(&contentType, "type", "t", "", "Content type (default report.default_content_type)")
	cmd.RegisterFlagCompletionFunc("type", completeContentTypes(opts))
	return cmd
}

func newPostsCommand(opts *rootOptions) *cobra.Command {
	var contentType, key string

	cmd := &cobra.Command{
		Use:     "posts",
		Short:   "List every record using a key, with a summary of its value",
		Example: `  fieldradar posts --type post --key subtitle`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if contentType == "" {
				contentType = a.cfg.Report.DefaultContentType
			}

			list, err := a.service.ShowPosts(cmd.Context(), contentType, key)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.format == formatJSON {
				return writeJSON(out, list)
			}
			if list.Empty {
				if list.NoCandidates {
					warnUnknownKey(cmd.Context(), cmd.ErrOrStderr(), a, contentType, key, opts.noColor)
				}
				fmt.Fprintln(out, ui.Empty(fmt.Sprintf("%s records using %q", contentType, key), opts.noColor))
				return nil
			}
			renderPosts(out, list, opts.noColor)
			return nil
		},
	}

	cmd.Flags().StringVarP(&contentType, "type", "t", "", "Content type (default report.default_content_type)")
	cmd.Flags().StringVarP(&key, "key", "k", "", "Metadata key")
	cmd.MarkFlagRequired("key")
	cmd.RegisterFlagCompletionFunc("type", completeContentTypes(opts))
	cmd.RegisterFlagCompletionFunc("key", completeKeys(opts))
	return cmd
}

func newRecordsCommand(opts *rootOptions) *cobra.Command {
	var contentType, key string
	var page, perPage int

	cmd := &cobra.Command{
		Use:   "records",
		Short: "Page through the records using a key",
		Long: `Page through the records of a content type whose value for a key is
meaningful, in ascending ID order. A page past the end shows the last page.`,
		Example: `  fieldradar records --type post --key subtitle
  fieldradar records --type post --key subtitle --page 3 --per-page 50`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			// flags go through the same parsing as the API so clamping matches
			q := url.Values{}
			if contentType != "" {
				q.Set(report.ParamContentType, contentType)
			}
			q.Set(report.ParamMetaKey, key)
			q.Set(report.ParamPage, strconv.Itoa(page))
			if perPage > 0 {
				q.Set(report.ParamPerPage, strconv.Itoa(perPage))
			}
			req := report.ParseRequest(q, a.cfg.ReportDefaults())

			result, err := a.service.ShowMeta(cmd.Context(), req.ContentType, req.MetaKey, req.Page, req.PerPage)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.format == formatJSON {
				return writeJSON(out, result)
			}
			if result.Empty {
				fmt.Fprintln(out, ui.Empty(fmt.Sprintf("%s records using %q", req.ContentType, req.MetaKey), opts.noColor))
				return nil
			}
			renderPage(out, result, opts.noColor)
			return nil
		},
	}

	cmd.Flags().StringVarP(&contentType, "type", "t", "", "Content type (default report.default_content_type)")
	cmd.Flags().StringVarP(&key, "key", "k", "", "Metadata key")
	cmd.Flags().IntVarP(&page, "page", "p", 1, "Page number")
	cmd.Flags().IntVar(&perPage, "per-page", 0, "Records per page (default report.per_page)")
	cmd.MarkFlagRequired("key")
	cmd.RegisterFlagCompletionFunc("type", completeContentTypes(opts))
	cmd.RegisterFlagCompletionFunc("key", completeKeys(opts))
	return cmd
}

func renderKeys(w io.Writer, contentType string, rows []report.KeyUsage, noColor bool) {
	ui.Header(w, fmt.Sprintf("Metadata keys for %s", contentType), noColor)
	table := ui.NewTable(w, []string{"KEY", "USED", "LABEL"}, &ui.TableOptions{NoColor: noColor, RightAlign: []int{1}})
	for _, r := range rows {
		table.AddRow(r.Key, strconv.Itoa(r.UsedCount), r.Label)
	}
	table.Render()
}

func renderPosts(w io.Writer, list *report.PostList, noColor bool) {
	ui.Header(w, fmt.Sprintf("%s / %s", list.ContentType, list.Key), noColor)
	table := ui.NewTable(w, []string{"ID", "TITLE", "STATUS", "VALUE"}, &ui.TableOptions{NoColor: noColor, RightAlign: []int{0}})
	for _, p := range list.Posts {
		table.AddRow(strconv.FormatInt(int64(p.ID), 10), p.DisplayTitle(), p.Status, p.Summary)
	}
	table.Render()
	fmt.Fprintf(w, "\n%d records\n", len(list.Posts))
}

func renderPage(w io.Writer, page *report.PostPage, noColor bool) {
	ui.Header(w, fmt.Sprintf("%s / %s", page.ContentType, page.Key), noColor)
	table := ui.NewTable(w, []string{"ID", "TITLE", "SLUG", "STATUS"}, &ui.TableOptions{NoColor: noColor, RightAlign: []int{0}})
	for _, r := range page.Records {
		table.AddRow(strconv.FormatInt(int64(r.ID), 10), r.DisplayTitle(), r.Slug, r.Status)
	}
	table.Render()
	fmt.Fprintf(w, "\nPage %d of %d (%d records)\n", page.Page, page.TotalPages, page.TotalCount)
}

// warnUnknownType explains an empty key list caused by a mistyped content
// type. Lookup failures are ignored; the empty result stands on its own.
func warnUnknownType(ctx context.Context, w io.Writer, a *app, contentType string, noColor bool) {
	types, err := a.service.ContentTypes(ctx)
	if err != nil {
		return
	}
	for _, t := range types {
		if t == contentType {
			return
		}
	}
	p := ui.UnknownContentType(contentType, types, noColor)
	p.Level = ui.LevelWarning
	p.Write(w)
}

// warnUnknownKey explains an empty record list caused by a key that no
// record of the type stores
func warnUnknownKey(ctx context.Context, w io.Writer, a *app, contentType, key string, noColor bool) {
	keys, err := a.catalog.ListKeys(ctx, contentType)
	if err != nil {
		return
	}
	p := ui.UnknownKey(contentType, key, keys, noColor)
	p.Level = ui.LevelWarning
	p.Write(w)
}
