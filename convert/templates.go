package convert

import (
	"bytes"
	"fmt"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"
)

// Values is a struct that holds variables we make available for template expansion
type Values struct {
	Name string
	Ext  string
	Dir  string
}

func expandTemplate(name, field string, values Values) (string, error) {
	tmpl, err := template.New(name).Funcs(sprig.FuncMap()).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", name, err)
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", err
	}
	return buf.String(), nil
}
