package mailer

import (
	"errors"
	"strings"

	mailtpl "github.com/oksasatya/cofre-digital/pkg/mailer/templates"
)

var ErrEmptyJob = errors.New("email job has no recipient or body")

// Compose resolves the final subject, text and html for a job. Template
// jobs are rendered from the embedded templates; raw jobs pass through.
func Compose(job EmailJob) (subject, text, html string, err error) {
	if strings.TrimSpace(job.To) == "" {
		return "", "", "", ErrEmptyJob
	}
	if job.Template != "" {
		return mailtpl.Render(job.Template, job.Data)
	}
	if job.Subject == "" || (job.Text == "" && job.HTML == "") {
		return "", "", "", ErrEmptyJob
	}
	return job.Subject, job.Text, job.HTML, nil
}
