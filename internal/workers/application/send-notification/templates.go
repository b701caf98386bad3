// internal/workers/application/send-notification/templates.go
package sendnotification

import (
	"strings"
	"text/template"
)

const emailSubject = "Recebemos sua aplicação para o 4Creators Club"

var emailBody = template.Must(template.New("email").Parse(`Olá, {{.Name}}!

Recebemos sua aplicação para o 4Creators Club e nosso time já está analisando seu perfil ({{.Instagram}}).

Seu objetivo: {{.Goal}}

Em breve entraremos em contato pelo WhatsApp {{.Phone}}.

Equipe 4Creators Club
`))

var teamSMS = template.Must(template.New("sms").Parse(
	`4Creators: nova aplicação avançada de {{.Name}} ({{.Instagram}}), {{.Phone}}`))

func render(t *template.Template, input *Input) (string, error) {
	var sb strings.Builder
	if err := t.Execute(&sb, input); err != nil {
		return "", err
	}
	return sb.String(), nil
}
