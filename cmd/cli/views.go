package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/and161185/jobassist/internal/model"
	"github.com/and161185/jobassist/internal/service"
	"github.com/and161185/jobassist/internal/workflow"
)

// ---- json ----

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ---- text ----

func date(t *model.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02")
}

// list prints items as bullets, or "No <what> identified" when empty.
func list(w io.Writer, title, what string, items []string) {
	fmt.Fprintf(w, "%s:\n", title)
	if len(items) == 0 {
		fmt.Fprintf(w, "  No %s identified\n", what)
		return
	}
	for _, it := range items {
		fmt.Fprintf(w, "  - %s\n", it)
	}
}

func renderProfile(w io.Writer, p model.Profile) {
	fmt.Fprintf(w, "Resume Analysis %s\n\n", p.ID)
	fmt.Fprintln(w, "Professional Summary:")
	if strings.TrimSpace(p.Summary) == "" {
		fmt.Fprintln(w, "  No summary available")
	} else {
		fmt.Fprintf(w, "  %s\n", p.Summary)
	}
	fmt.Fprintln(w)
	list(w, "Sectors", "sectors", p.Sectors)
	list(w, "Roles", "roles", p.Roles)
	list(w, "Skills", "skills", p.Skills)
}

func renderCompany(w io.Writer, c model.Company) {
	fmt.Fprintf(w, "%s (%s)\n", c.Name, c.ID)
	if c.Website != "" {
		fmt.Fprintf(w, "Website: %s\n", c.Website)
	}
	if c.SourceURL != "" {
		fmt.Fprintf(w, "Job posting: %s\n", c.SourceURL)
	}
	if c.Summary != "" {
		fmt.Fprintf(w, "\n%s\n", c.Summary)
	}
	fmt.Fprintln(w)
	list(w, "Focus areas", "focus areas", c.FocusAreas)
	list(w, "Requirements", "requirements", c.Requirements)
}

func renderDocument(w io.Writer, d model.Document) {
	edited := "no"
	if d.EditedText != nil {
		edited = "yes"
	}
	fmt.Fprintf(w, "Document %s  type=%s status=%s version=%d edited=%s\n\n", d.ID, d.DocType, d.Status, d.Version, edited)
	fmt.Fprintln(w, d.Text())
}

func renderLetter(w io.Writer, l model.Letter) {
	fmt.Fprintf(w, "Letter %s  [%s]  language=%s tone=%s\n", l.ID, l.Status, l.Language, l.Tone)
	fmt.Fprintf(w, "Profile %s, company %s\n", l.ProfileID, l.CompanyID)
	if l.Subject != "" {
		fmt.Fprintf(w, "Subject: %s\n", l.Subject)
	}
	fmt.Fprintf(w, "\n%s\n", l.Body)
}

func renderDraft(w io.Writer, d model.EmailDraft) {
	fmt.Fprintf(w, "Draft %s for letter %s\n", d.ID, d.LetterID)
	fmt.Fprintf(w, "To: %s\n", d.ToEmail)
	if d.CC != "" {
		fmt.Fprintf(w, "Cc: %s\n", d.CC)
	}
	if d.BCC != "" {
		fmt.Fprintf(w, "Bcc: %s\n", d.BCC)
	}
	fmt.Fprintf(w, "Subject: %s\n\n%s\n", d.Subject, d.Body)
	if d.MailtoLink != "" {
		fmt.Fprintf(w, "\nOpen in your mail client:\n%s\n", d.MailtoLink)
	}
}

func renderFile(w io.Writer, f model.UploadedFile) {
	fmt.Fprintf(w, "File %s  %s  %s  %d bytes  uploaded %s\n", f.ID, f.FileName, f.MimeType, f.Size, date(f.CreatedAt))
}

func table(w io.Writer, header string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, header)
	for _, r := range rows {
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	return tw.Flush()
}

func renderProfiles(w io.Writer, ps []model.Profile) error {
	if len(ps) == 0 {
		fmt.Fprintln(w, "No profiles found. Upload a resume with `ja upload <file>`.")
		return nil
	}
	rows := make([][]string, 0, len(ps))
	for _, p := range ps {
		rows = append(rows, []string{p.ID, date(p.CreatedAt), fmt.Sprint(len(p.Skills)), clip(p.Summary, 60)})
	}
	return table(w, "ID\tCREATED\tSKILLS\tSUMMARY", rows)
}

func renderCompanies(w io.Writer, cs []model.Company) error {
	if len(cs) == 0 {
		fmt.Fprintln(w, "No companies found. Analyze one with `ja company analyze --name <name>`.")
		return nil
	}
	rows := make([][]string, 0, len(cs))
	for _, c := range cs {
		rows = append(rows, []string{c.ID, c.Name, c.Website, date(c.CreatedAt)})
	}
	return table(w, "ID\tNAME\tWEBSITE\tCREATED", rows)
}

func renderLetters(w io.Writer, ls []model.Letter) error {
	if len(ls) == 0 {
		fmt.Fprintln(w, "No cover letters yet.")
		return nil
	}
	rows := make([][]string, 0, len(ls))
	for _, l := range ls {
		rows = append(rows, []string{l.ID, l.Status, l.Language, date(l.CreatedAt), clip(l.Subject, 50)})
	}
	return table(w, "ID\tSTATUS\tLANG\tCREATED\tSUBJECT", rows)
}

func renderDrafts(w io.Writer, ds []model.EmailDraft) error {
	if len(ds) == 0 {
		fmt.Fprintln(w, "No email drafts yet.")
		return nil
	}
	rows := make([][]string, 0, len(ds))
	for _, d := range ds {
		rows = append(rows, []string{d.ID, d.LetterID, d.ToEmail, clip(d.Subject, 50)})
	}
	return table(w, "ID\tLETTER\tTO\tSUBJECT", rows)
}

func renderDashboard(w io.Writer, u model.User, d workflow.Dashboard) error {
	name := u.Name
	if name == "" {
		name = u.Email
	}
	fmt.Fprintf(w, "Welcome back, %s!\n\n", name)
	fmt.Fprintf(w, "Resumes: %d   Companies: %d   Cover letters: %d\n\n", len(d.Profiles), len(d.Companies), len(d.Letters))
	fmt.Fprintln(w, "Recent Cover Letters")
	recent := d.Letters
	if len(recent) > 5 {
		recent = recent[:5]
	}
	return renderLetters(w, recent)
}

func renderOverview(w io.Writer, ov service.Overview) error {
	fmt.Fprintln(w, "API keys")
	rows := make([][]string, 0, len(ov.Providers))
	for _, p := range ov.Providers {
		st, since := "not configured", "-"
		if p.Configured {
			st = "configured"
			if p.Credential != nil {
				since = date(p.Credential.CreatedAt)
			}
		}
		rows = append(rows, []string{p.Provider, st, since})
	}
	if err := table(w, "PROVIDER\tSTATUS\tSINCE", rows); err != nil {
		return err
	}
	fmt.Fprintln(w, "\nModels")
	rows = rows[:0]
	for _, m := range ov.Models {
		rows = append(rows, []string{m.ID, m.Name, m.Provider})
	}
	return table(w, "ID\tNAME\tPROVIDER", rows)
}

func clip(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
