package email

import (
	"bytes"
	"html/template"
	"strings"
)

const (
	ActivationSubject = "Account activation link"
	ResetSubject      = "Password Reset Link"
)

var activationTmpl = template.Must(template.New("activation").Parse(`
<h1>Please use the following to activate your account</h1>
<p>{{.Link}}</p>
<hr />
<p>This email may contain sensitive information</p>
<p>{{.ClientURL}}</p>
`))

var resetTmpl = template.Must(template.New("reset").Parse(`
<h1>Reset your password</h1>
<p>{{.Link}}</p>
<hr />
<p>{{.ClientURL}}</p>
`))

type linkData struct {
	Link      string
	ClientURL string
}

// ActivationBody arma el cuerpo HTML con el link de activación.
func ActivationBody(clientURL, token string) (string, error) {
	return render(activationTmpl, clientURL, "/users/activate/"+token)
}

// ResetBody arma el cuerpo HTML con el link de reseteo de contraseña.
func ResetBody(clientURL, token string) (string, error) {
	return render(resetTmpl, clientURL, "/users/password/reset/"+token)
}

func render(tmpl *template.Template, clientURL, path string) (string, error) {
	base := strings.TrimRight(clientURL, "/")
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, linkData{Link: base + path, ClientURL: base}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
