package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/and161185/jobassist/internal/api"
	"github.com/and161185/jobassist/internal/errs"
	"github.com/and161185/jobassist/internal/workflow"
)

// ---- companies ----

func (a *app) companyCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "company", Short: "Company research"}

	var (
		lf  llmFlags
		req api.CompanyRequest
	)
	analyze := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a company from its name, website or job posting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req.Model, req.Provider = a.llm(lf)
			p := workflow.NewCompanyPipeline(a.client, a.log.Named("company"), a.observer())
			if err := p.Configure(req); err != nil {
				return err
			}
			c, err := p.Analyze(cmd.Context()).Unpack()
			if err != nil {
				return err
			}
			return a.emit(c, func(w io.Writer) error { renderCompany(w, c); return nil })
		},
	}
	lf.bind(analyze)
	analyze.Flags().StringVar(&req.Name, "name", "", "company name (required)")
	analyze.Flags().StringVar(&req.Website, "website", "", "company website URL")
	analyze.Flags().StringVar(&req.JobURL, "job-url", "", "job posting URL")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a company",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client.GetCompany(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.emit(c, func(w io.Writer) error { renderCompany(w, c); return nil })
		},
	}

	ls := &cobra.Command{
		Use:   "list",
		Short: "List companies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cs, err := a.client.ListCompanies(cmd.Context())
			if err != nil {
				return err
			}
			return a.emit(cs, func(w io.Writer) error { return renderCompanies(w, cs) })
		},
	}

	var (
		name, website, sourceURL, summary string
		focus, requirements               []string
	)
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit a company; only the given flags are changed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var u api.CompanyUpdate
			fl := cmd.Flags()
			if fl.Changed("name") {
				u.Name = &name
			}
			if fl.Changed("website") {
				u.Website = &website
			}
			if fl.Changed("source-url") {
				u.SourceURL = &sourceURL
			}
			if fl.Changed("summary") {
				u.Summary = &summary
			}
			if fl.Changed("focus-areas") {
				u.FocusAreas = &focus
			}
			if fl.Changed("requirements") {
				u.Requirements = &requirements
			}
			c, err := a.client.UpdateCompany(cmd.Context(), args[0], u)
			if err != nil {
				return err
			}
			return a.emit(c, func(w io.Writer) error { renderCompany(w, c); return nil })
		},
	}
	update.Flags().StringVar(&name, "name", "", "company name")
	update.Flags().StringVar(&website, "website", "", "website URL")
	update.Flags().StringVar(&sourceURL, "source-url", "", "job posting URL")
	update.Flags().StringVar(&summary, "summary", "", "summary")
	update.Flags().StringSliceVar(&focus, "focus-areas", nil, "comma-separated focus areas")
	update.Flags().StringSliceVar(&requirements, "requirements", nil, "comma-separated requirements")

	for _, c := range []*cobra.Command{analyze, show, ls, update} {
		cmd.AddCommand(routed(c, "/analyze-company"))
	}
	return cmd
}

// ---- letters ----

type recipientFlags struct {
	to, cc, bcc string
}

func (f *recipientFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.to, "to", "", "recipient address")
	cmd.Flags().StringVar(&f.cc, "cc", "", "comma-separated Cc addresses")
	cmd.Flags().StringVar(&f.bcc, "bcc", "", "comma-separated Bcc addresses")
}

func (f recipientFlags) recipients() workflow.Recipients {
	return workflow.Recipients{To: f.to, CC: f.cc, BCC: f.bcc}
}

func (a *app) letterPipeline() *workflow.LetterPipeline {
	return workflow.NewLetterPipeline(a.client, a.log.Named("letter"), a.observer())
}

func (a *app) letterCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "letter", Short: "Cover letters"}

	var (
		lf       llmFlags
		cfg      workflow.LetterConfig
		bodyFile string
		rf       recipientFlags
		draft    bool
	)
	generate := &cobra.Command{
		Use:   "generate",
		Short: "Generate a cover letter for a profile and a company",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg.Model, cfg.Provider = a.llm(lf)
			if cfg.Language == "" {
				cfg.Language = a.cfg.Defaults.Language
			}
			if cfg.Tone == "" {
				cfg.Tone = a.cfg.Defaults.Tone
			}
			p := a.letterPipeline()
			if err := p.Configure(cfg); err != nil {
				return err
			}
			if _, err := p.Generate(ctx).Unpack(); err != nil {
				return err
			}
			if bodyFile != "" {
				body, err := a.readAll(bodyFile)
				if err != nil {
					return err
				}
				if err := p.EditBody(body); err != nil {
					return err
				}
				if _, err := p.Save(ctx).Unpack(); err != nil {
					return err
				}
			}
			if draft {
				return a.finishDraft(cmd, p, rf)
			}
			l, _ := p.Letter()
			return a.emit(l, func(w io.Writer) error { renderLetter(w, l); return nil })
		},
	}
	lf.bind(generate)
	generate.Flags().StringVar(&cfg.ProfileID, "profile", "", "profile id (required)")
	generate.Flags().StringVar(&cfg.CompanyID, "company", "", "company id (required)")
	generate.Flags().StringVar(&cfg.Language, "language", "", "one of en, fr, de, es, it, pt, nl")
	generate.Flags().StringVar(&cfg.Tone, "tone", "", "one of formal, friendly, enthusiastic, technical, concise")
	generate.Flags().StringVar(&bodyFile, "body-file", "", "replace the generated body and save it (- for stdin)")
	generate.Flags().BoolVar(&draft, "draft", false, "also create an email draft")
	rf.bind(generate)

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a letter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.client.GetLetter(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.emit(l, func(w io.Writer) error { renderLetter(w, l); return nil })
		},
	}

	ls := &cobra.Command{
		Use:   "list",
		Short: "List letters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			letters, err := a.client.ListLetters(cmd.Context())
			if err != nil {
				return err
			}
			return a.emit(letters, func(w io.Writer) error { return renderLetters(w, letters) })
		},
	}

	var editFile string
	edit := &cobra.Command{
		Use:   "edit <id>",
		Short: "Replace a letter's body and mark it edited",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			body, err := a.readAll(editFile)
			if err != nil {
				return err
			}
			p := a.letterPipeline()
			if _, err := p.Load(ctx, args[0]).Unpack(); err != nil {
				return err
			}
			if err := p.EditBody(body); err != nil {
				return err
			}
			l, err := p.Save(ctx).Unpack()
			if err != nil {
				return err
			}
			return a.emit(l, func(w io.Writer) error { renderLetter(w, l); return nil })
		},
	}
	edit.Flags().StringVarP(&editFile, "file", "f", "-", "file holding the new body (- for stdin)")

	var (
		drf          recipientFlags
		draftBodyArg string
	)
	draftCmd := &cobra.Command{
		Use:   "draft <id>",
		Short: "Create an email draft for a letter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p := a.letterPipeline()
			if _, err := p.Load(ctx, args[0]).Unpack(); err != nil {
				return err
			}
			if draftBodyArg != "" {
				body, err := a.readAll(draftBodyArg)
				if err != nil {
					return err
				}
				if err := p.EditBody(body); err != nil {
					return err
				}
			}
			return a.finishDraft(cmd, p, drf)
		},
	}
	drf.bind(draftCmd)
	draftCmd.Flags().StringVar(&draftBodyArg, "body-file", "", "use this body; it is saved first when it differs (- for stdin)")

	for _, c := range []*cobra.Command{generate, show, ls, edit, draftCmd} {
		cmd.AddCommand(routed(c, "/generate-letter"))
	}
	return cmd
}

// finishDraft creates the draft and prints it with its mailto link.
func (a *app) finishDraft(cmd *cobra.Command, p *workflow.LetterPipeline, rf recipientFlags) error {
	d, err := p.CreateDraft(cmd.Context(), rf.recipients()).Unpack()
	if err != nil {
		return err
	}
	if link, err := p.MailtoLink(); err == nil {
		d.MailtoLink = link
	}
	return a.emit(d, func(w io.Writer) error { renderDraft(w, d); return nil })
}

// ---- drafts ----

func (a *app) draftCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "draft", Short: "Email drafts"}

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a draft and its mailto link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.client.GetDraft(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.emit(d, func(w io.Writer) error { renderDraft(w, d); return nil })
		},
	}

	ls := &cobra.Command{
		Use:   "list",
		Short: "List drafts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds, err := a.client.ListDrafts(cmd.Context())
			if err != nil {
				return err
			}
			return a.emit(ds, func(w io.Writer) error { return renderDrafts(w, ds) })
		},
	}

	var (
		rf       recipientFlags
		subject  string
		bodyFile string
	)
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit a draft; only the given flags are changed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rf.recipients().Validate(); err != nil {
				return errs.Invalid(err)
			}
			var u api.DraftUpdate
			fl := cmd.Flags()
			if fl.Changed("to") {
				u.ToEmail = &rf.to
			}
			if fl.Changed("cc") {
				u.CC = &rf.cc
			}
			if fl.Changed("bcc") {
				u.BCC = &rf.bcc
			}
			if fl.Changed("subject") {
				u.Subject = &subject
			}
			if bodyFile != "" {
				body, err := a.readAll(bodyFile)
				if err != nil {
					return err
				}
				u.Body = &body
			}
			d, err := a.client.UpdateDraft(cmd.Context(), args[0], u)
			if err != nil {
				return err
			}
			return a.emit(d, func(w io.Writer) error { renderDraft(w, d); return nil })
		},
	}
	rf.bind(update)
	update.Flags().StringVar(&subject, "subject", "", "subject line")
	update.Flags().StringVar(&bodyFile, "body-file", "", "file holding the new body (- for stdin)")

	for _, c := range []*cobra.Command{show, ls, update} {
		cmd.AddCommand(routed(c, "/generate-letter"))
	}
	return cmd
}
