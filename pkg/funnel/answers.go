package funnel

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Option is one selectable answer of a question.
type Option struct {
	Value string
	Label string
	Sub   string
}

// Field names as posted by the form and used as error keys.
const (
	FieldSituation      = "situation"
	FieldProblem        = "problem"
	FieldImplication    = "implication"
	FieldAcceptsPrivate = "acceptsPrivate"
	FieldPhone          = "phone"
	FieldName           = "name"
	FieldEmail          = "email"
)

// Private-pay qualification answers.
const (
	AcceptsPrivateYes = "sim"
	AcceptsPrivateNo  = "nao"
)

// SituationOptions answer "when was your last eye exam".
var SituationOptions = []Option{
	{Value: "menos1", Label: "Menos de 1 ano", Sub: "Ótimo! Manter o acompanhamento"},
	{Value: "1a2", Label: "1 a 2 anos", Sub: "Hora de atualizar"},
	{Value: "mais2", Label: "Mais de 2 anos", Sub: "Importante verificar"},
	{Value: "nunca", Label: "Nunca fiz exame", Sub: "Vamos cuidar disso!"},
}

// ProblemOptions answer "which symptom do you have".
var ProblemOptions = []Option{
	{Value: "visao_embaçada", Label: "Visão embaçada ou turva", Sub: "De perto ou de longe"},
	{Value: "dor_cabeca", Label: "Dores de cabeça frequentes", Sub: "Especialmente após leitura"},
	{Value: "vista_cansada", Label: "Vista cansada", Sub: "Ao usar celular/computador"},
	{Value: "dificuldade_noite", Label: "Dificuldade para enxergar à noite", Sub: "Ao dirigir ou caminhar"},
	{Value: "checkup", Label: "Nenhum sintoma, quero check-up", Sub: "Prevenção é importante!"},
}

// ImplicationOptions answer "how does it affect your day".
var ImplicationOptions = []Option{
	{Value: "trabalho", Label: "Afeta meu trabalho", Sub: "Produtividade reduzida"},
	{Value: "dirigir", Label: "Dificuldade para dirigir", Sub: "Insegurança no trânsito"},
	{Value: "leitura", Label: "Problemas para ler", Sub: "Livros, celular, documentos"},
	{Value: "qualidade", Label: "Reduz minha qualidade de vida", Sub: "Atividades do dia a dia"},
	{Value: "prevencao", Label: "Quero prevenir problemas", Sub: "Cuidar antes que piore"},
}

// Short labels used in summaries, the WhatsApp message and the webhook.
var (
	situationLabels = map[string]string{
		"menos1": "Menos de 1 ano",
		"1a2":    "1 a 2 anos",
		"mais2":  "Mais de 2 anos",
		"nunca":  "Nunca fiz",
	}
	problemLabels = map[string]string{
		"visao_embaçada":    "Visão embaçada",
		"dor_cabeca":        "Dores de cabeça",
		"vista_cansada":     "Vista cansada",
		"dificuldade_noite": "Dificuldade à noite",
		"checkup":           "Apenas check-up",
	}
	implicationLabels = map[string]string{
		"trabalho":  "Afeta meu trabalho",
		"dirigir":   "Dificuldade para dirigir",
		"leitura":   "Problemas para ler",
		"qualidade": "Reduz minha qualidade de vida",
		"prevencao": "Quero prevenir problemas",
	}
)

// SituationLabel returns the summary label of a situation value, or "" if unknown.
func SituationLabel(v string) string { return situationLabels[v] }

// ProblemLabel returns the summary label of a problem value, or "" if unknown.
func ProblemLabel(v string) string { return problemLabels[v] }

// ImplicationLabel returns the summary label of an implication value, or "" if unknown.
func ImplicationLabel(v string) string { return implicationLabels[v] }

// Answers holds everything the visitor typed or picked.
type Answers struct {
	Situation      string `json:"situation"`
	Problem        string `json:"problem"`
	Implication    string `json:"implication"`
	AcceptsPrivate string `json:"acceptsPrivate"`
	Phone          string `json:"phone"`
	Name           string `json:"name"`
	Email          string `json:"email"`
}

// ErrUnknownField is returned when a posted field is not part of the form.
var ErrUnknownField = errors.New("unknown form field")

// Set stores value under field. Phone numbers are formatted on the way in.
func (a *Answers) Set(field, value string) error {
	switch field {
	case FieldSituation:
		a.Situation = value
	case FieldProblem:
		a.Problem = value
	case FieldImplication:
		a.Implication = value
	case FieldAcceptsPrivate:
		a.AcceptsPrivate = value
	case FieldPhone:
		a.Phone = FormatPhone(value)
	case FieldName:
		a.Name = value
	case FieldEmail:
		a.Email = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}

// ValidationError maps field names to the message shown next to them.
type ValidationError map[string]string

func (e ValidationError) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return "invalid fields: " + strings.Join(fields, ", ")
}

// Validate checks a complete record, as received by the JSON intake.
// A visitor who needs insurance is not a lead, so acceptsPrivate must be "sim".
func (a Answers) Validate() error {
	errs := ValidationError{}
	if SituationLabel(a.Situation) == "" {
		errs[FieldSituation] = MsgSelectOption
	}
	if ProblemLabel(a.Problem) == "" {
		errs[FieldProblem] = MsgSelectAtLeastOne
	}
	if ImplicationLabel(a.Implication) == "" {
		errs[FieldImplication] = MsgSelectOption
	}
	if a.AcceptsPrivate != AcceptsPrivateYes {
		errs[FieldAcceptsPrivate] = MsgSelectOption
	}
	if !ValidatePhone(a.Phone) {
		errs[FieldPhone] = MsgInvalidPhone
	}
	if !ValidateName(a.Name) {
		errs[FieldName] = MsgInvalidName
	}
	if !ValidateEmail(a.Email) {
		errs[FieldEmail] = MsgInvalidEmail
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
