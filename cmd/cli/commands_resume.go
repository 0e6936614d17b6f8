package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/and161185/jobassist/internal/api"
	"github.com/and161185/jobassist/internal/model"
	"github.com/and161185/jobassist/internal/upload"
	"github.com/and161185/jobassist/internal/workflow"
)

type llmFlags struct {
	model    string
	provider string
}

func (f *llmFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.model, "model", "", "LLM model (default from config)")
	cmd.Flags().StringVar(&f.provider, "provider", "", "LLM provider (default from config)")
}

func (a *app) llm(f llmFlags) (string, string) {
	m, p := f.model, f.provider
	if m == "" {
		m = a.cfg.Defaults.Model
	}
	if p == "" {
		p = a.cfg.Defaults.Provider
	}
	return m, p
}

func (a *app) resumePipeline(f llmFlags) *workflow.ResumePipeline {
	m, p := a.llm(f)
	return workflow.NewResumePipeline(a.client, a.log.Named("resume"),
		workflow.WithModel(m, p), workflow.WithResumeObserver(a.observer()))
}

// showProfile reads the profile fresh by id, the way the analysis view does.
func (a *app) showProfile(ctx context.Context, id string) error {
	prof, err := a.client.GetProfile(ctx, id)
	if err != nil {
		return err
	}
	return a.emit(prof, func(w io.Writer) error { renderProfile(w, prof); return nil })
}

// ---- upload ----

func (a *app) uploadCmd() *cobra.Command {
	var (
		lf        llmFlags
		editFile  string
		noAnalyze bool
	)
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a resume, extract its text and analyze it",
		Long: "Upload a PDF, PNG, JPEG or DOCX resume (under 10MB), run OCR on it, optionally\n" +
			"replace the extracted text with --edit-file, then analyze it into a profile.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			f, err := upload.Inspect(args[0])
			if err != nil {
				return err
			}
			p := a.resumePipeline(lf)
			if err := p.Select(f); err != nil {
				return err
			}
			doc, err := p.Start(ctx).Unpack()
			if err != nil {
				return err
			}
			a.say("Uploaded %s as file %s; document %s ready", f.Name, doc.FileID, doc.ID)

			if editFile != "" {
				text, err := a.readAll(editFile)
				if err != nil {
					return err
				}
				if err := p.Edit(text); err != nil {
					return err
				}
			}
			if noAnalyze {
				if editFile != "" {
					if doc, err = p.Save(ctx).Unpack(); err != nil {
						return err
					}
				}
				return a.emit(doc, func(w io.Writer) error {
					fmt.Fprintf(w, "Review it with `ja document show %s`, then `ja document analyze %s`.\n", doc.ID, doc.ID)
					return nil
				})
			}
			h, err := p.Analyze(ctx).Unpack()
			if err != nil {
				return err
			}
			return a.showProfile(ctx, h.ProfileID)
		},
	}
	lf.bind(cmd)
	cmd.Flags().StringVar(&editFile, "edit-file", "", "replace the extracted text with this file's content (- for stdin)")
	cmd.Flags().BoolVar(&noAnalyze, "no-analyze", false, "stop after OCR (and the optional edit)")
	return routed(cmd, "/upload")
}

// ---- files ----

func (a *app) fileCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "file", Short: "Uploaded files"}

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show file metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.client.GetFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.emit(f, func(w io.Writer) error { renderFile(w, f); return nil })
		},
	}

	var output string
	download := &cobra.Command{
		Use:   "download <id>",
		Short: "Download the original file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.client.DownloadFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if output == "-" {
				_, err = a.out.Write(d.Data)
				return err
			}
			path := output
			if path == "" {
				path = d.FileName
				if path == "" {
					path = args[0]
				}
				path = filepath.Base(path)
			}
			if err := os.WriteFile(path, d.Data, 0o600); err != nil {
				return err
			}
			a.say("Saved %d bytes (%s) to %s", len(d.Data), d.ContentType, path)
			return nil
		},
	}
	download.Flags().StringVarP(&output, "output", "o", "", "destination path (- for stdout)")

	var source string
	imp := &cobra.Command{
		Use:   "import",
		Short: "Import a file from an external source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := a.client.ImportFile(cmd.Context(), source)
			if err != nil {
				return err
			}
			return a.emit(f, func(w io.Writer) error { renderFile(w, f); return nil })
		},
	}
	imp.Flags().StringVar(&source, "source", "", "source name, for example gdrive")

	for _, c := range []*cobra.Command{show, download, imp} {
		cmd.AddCommand(routed(c, "/upload"))
	}
	return cmd
}

// ---- documents ----

func (a *app) documentCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "document", Short: "Extracted resume text"}

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a document's current text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.client.GetDocument(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.emit(newDocView(d),
				func(w io.Writer) error { renderDocument(w, d); return nil })
		},
	}

	var file string
	edit := &cobra.Command{
		Use:   "edit <id>",
		Short: "Replace a document's text and save it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			text, err := a.readAll(file)
			if err != nil {
				return err
			}
			p := a.resumePipeline(llmFlags{})
			if _, err := p.Open(ctx, args[0]).Unpack(); err != nil {
				return err
			}
			if err := p.Edit(text); err != nil {
				return err
			}
			d, err := p.Save(ctx).Unpack()
			if err != nil {
				return err
			}
			a.say("Saved document %s (version %d)", d.ID, d.Version)
			if a.jsonOut {
				return printJSON(a.out, newDocView(d))
			}
			return nil
		},
	}
	edit.Flags().StringVarP(&file, "file", "f", "-", "file holding the new text (- for stdin)")

	var (
		lf          llmFlags
		analyzeFile string
	)
	analyze := &cobra.Command{
		Use:   "analyze <id>",
		Short: "Save the document text and analyze it into a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p := a.resumePipeline(lf)
			if _, err := p.Open(ctx, args[0]).Unpack(); err != nil {
				return err
			}
			if analyzeFile != "" {
				text, err := a.readAll(analyzeFile)
				if err != nil {
					return err
				}
				if err := p.Edit(text); err != nil {
					return err
				}
			}
			h, err := p.Analyze(ctx).Unpack()
			if err != nil {
				return err
			}
			return a.showProfile(ctx, h.ProfileID)
		},
	}
	lf.bind(analyze)
	analyze.Flags().StringVarP(&analyzeFile, "file", "f", "", "replace the text with this file first (- for stdin)")

	for _, c := range []*cobra.Command{show, edit, analyze} {
		cmd.AddCommand(routed(c, "/document/:id"))
	}
	return cmd
}

type docView struct {
	ID         string  `json:"id"`
	DocType    string  `json:"doc_type"`
	Status     string  `json:"status"`
	Version    int     `json:"version"`
	RawText    string  `json:"raw_text"`
	EditedText *string `json:"edited_text"`
}

func newDocView(d model.Document) docView {
	return docView{ID: d.ID, DocType: d.DocType, Status: d.Status, Version: d.Version, RawText: d.RawText, EditedText: d.EditedText}
}

// ---- profiles ----

func (a *app) profileCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "profile", Short: "Resume analyses"}

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.showProfile(cmd.Context(), args[0])
		},
	}

	ls := &cobra.Command{
		Use:   "list",
		Short: "List profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ps, err := a.client.ListProfiles(cmd.Context())
			if err != nil {
				return err
			}
			return a.emit(ps, func(w io.Writer) error { return renderProfiles(w, ps) })
		},
	}

	var (
		summary                string
		sectors, roles, skills []string
	)
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit a profile; only the given flags are changed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var u api.ProfileUpdate
			fl := cmd.Flags()
			if fl.Changed("summary") {
				u.Summary = &summary
			}
			if fl.Changed("sectors") {
				u.Sectors = &sectors
			}
			if fl.Changed("roles") {
				u.Roles = &roles
			}
			if fl.Changed("skills") {
				u.Skills = &skills
			}
			prof, err := a.client.UpdateProfile(cmd.Context(), args[0], u)
			if err != nil {
				return err
			}
			return a.emit(prof, func(w io.Writer) error { renderProfile(w, prof); return nil })
		},
	}
	update.Flags().StringVar(&summary, "summary", "", "professional summary")
	update.Flags().StringSliceVar(&sectors, "sectors", nil, "comma-separated sectors")
	update.Flags().StringSliceVar(&roles, "roles", nil, "comma-separated roles")
	update.Flags().StringSliceVar(&skills, "skills", nil, "comma-separated skills")

	for _, c := range []*cobra.Command{show, ls, update} {
		cmd.AddCommand(routed(c, "/analyze-resume/:id"))
	}
	return cmd
}
