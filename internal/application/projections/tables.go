package projections

import (
	"bytes"
	"html/template"
	"net/url"
	"strconv"
	"strings"

	"saepe/internal/domain/indicator"
)

// SchoolPath returns the profile URL of a school; the name is path-escaped.
func SchoolPath(name string) string {
	return "/escola/" + url.PathEscape(name)
}

type tableRow struct {
	School string
	Link   string
	Cells  []string
}

type tableData struct {
	Headers []string
	Rows    []tableRow
}

var tableTmpl = template.Must(template.New("table").Parse(`<table class="table table-striped">
<thead><tr>{{range .Headers}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{- range .Rows}}
<tr><td><a href="{{.Link}}">{{.School}}</a></td>{{range .Cells}}<td>{{.}}</td>{{end}}</tr>
{{- end}}
</tbody>
</table>`))

func renderTable(data tableData) (template.HTML, error) {
	var buf bytes.Buffer
	if err := tableTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// renderScoreTable lists the SAEPE score history of each row.
func renderScoreTable(rows []indicator.Indicator) (template.HTML, error) {
	data := tableData{Headers: []string{"Escola", "Modalidade", "SAEPE 2022", "SAEPE 2023", "Variação"}}
	for _, r := range rows {
		delta := "-"
		if d, ok := r.ScoreDelta(); ok {
			delta = formatSigned(d)
		}
		data.Rows = append(data.Rows, tableRow{
			School: r.School.Name,
			Link:   SchoolPath(r.School.Name),
			Cells:  []string{dash(r.Modality), FormatDecimal(r.Score2022), FormatDecimal(r.Score2023), delta},
		})
	}
	return renderTable(data)
}

// renderProficiencyTable lists the 2023 proficiency subscores and enrollment of each row.
func renderProficiencyTable(rows []indicator.Indicator) (template.HTML, error) {
	data := tableData{Headers: []string{"Escola", "Prof. LP 2023", "Prof. MT 2023", "Alunos previstos 2023", "Matrícula EFAF 2024", "% Peso"}}
	for _, r := range rows {
		data.Rows = append(data.Rows, tableRow{
			School: r.School.Name,
			Link:   SchoolPath(r.School.Name),
			Cells: []string{
				FormatDecimal(r.ProficiencyLP2023),
				FormatDecimal(r.ProficiencyMT2023),
				FormatInt(r.ProjectedEnrollment23),
				FormatInt(r.EnrollmentEFAF2024),
				FormatDecimal(r.WeightPercent),
			},
		})
	}
	return renderTable(data)
}

// FormatDecimal renders a nullable number with two decimals and a decimal comma; nil is "-".
func FormatDecimal(v *float64) string {
	if v == nil {
		return "-"
	}
	return strings.Replace(strconv.FormatFloat(*v, 'f', 2, 64), ".", ",", 1)
}

// FormatInt renders a nullable whole number; nil is "-".
func FormatInt(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

func formatSigned(v float64) string {
	s := FormatDecimal(&v)
	if v > 0 {
		return "+" + s
	}
	return s
}

func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
