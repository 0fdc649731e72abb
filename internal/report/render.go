// Package report renders the selected activity into the editable document
// that becomes the mail body.
package report

import (
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/chesscom/workreport/internal/domain"
)

var funcs = template.FuncMap{
	"rfc3339": func(t time.Time) string { return t.Format(time.RFC3339) },
	"assignee": func(login *string) string {
		if login == nil {
			return "unassigned"
		}
		return *login
	},
}

var branchesTmpl = template.Must(template.New("branches").Funcs(funcs).Parse(
	`Branches:
{{range .}}
## {{.Name}}
{{range .Commits}}
* {{.ShortSHA}} ({{.CommentCount}} comments, authored {{rfc3339 .AuthorDate}})
  {{.URL}}
{{.Message}}
{{end}}{{end}}`))

var pullsTmpl = template.Must(template.New("pulls").Funcs(funcs).Parse(
	`Pull requests:
{{range .}}
## {{.Title}}
{{.FromBranch}} -> {{.ToBranch}}, {{assignee .Assignee}}, opened {{rfc3339 .CreatedAt}}
  {{.URL}}
{{.Body}}
{{end}}`))

type branchView struct {
	Name    string
	Commits []domain.CommitRecord
}

// Assemble combines the branch commits and pull requests into one document.
// A section is omitted when its collection is empty; when both are empty
// there is nothing to send and ErrEmptyReport is returned.
func Assemble(commits domain.BranchCommitMap, pulls []domain.PullRequestRecord) (string, error) {
	if commits.Empty() && len(pulls) == 0 {
		return "", domain.ErrEmptyReport
	}

	var sections []string
	if !commits.Empty() {
		views := make([]branchView, 0, len(commits.Branches()))
		for _, name := range commits.Branches() {
			views = append(views, branchView{Name: name, Commits: commits.Commits(name)})
		}
		section, err := render(branchesTmpl, views)
		if err != nil {
			return "", err
		}
		sections = append(sections, section)
	}
	if len(pulls) > 0 {
		section, err := render(pullsTmpl, pulls)
		if err != nil {
			return "", err
		}
		sections = append(sections, section)
	}
	return strings.Join(sections, "\n"), nil
}

func render(tmpl *template.Template, data interface{}) (string, error) {
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render %s section: %w", tmpl.Name(), err)
	}
	return sb.String(), nil
}
