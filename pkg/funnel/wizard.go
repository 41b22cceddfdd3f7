// Package funnel holds the lead-capture wizard: the step counter, its
// per-step guards and the input rules behind them.
package funnel

import "fmt"

// TotalSteps is the number of screens, the last one being the success screen.
const TotalSteps = 8

// Step numbers that carry special behavior.
const (
	FirstStep         = 1
	QualificationStep = 4
	PhoneStep         = 5
	NameStep          = 6
	EmailStep         = 7
	FinalStep         = TotalSteps
)

var stepNames = [TotalSteps + 1]string{
	1: "Último exame",
	2: "Sintomas",
	3: "Impacto",
	4: "Qualificação",
	5: "Telefone",
	6: "Nome",
	7: "Email",
	8: "Concluído",
}

// StepName returns the label recorded with funnel events for step.
func StepName(step int) string {
	if step < FirstStep || step > TotalSteps {
		return fmt.Sprintf("Etapa %d", step)
	}
	return stepNames[step]
}

// Validation messages shown under the offending field.
const (
	MsgSelectOption     = "Por favor, selecione uma opção"
	MsgSelectAtLeastOne = "Por favor, selecione pelo menos uma opção"
	MsgInvalidPhone     = "Telefone inválido. Digite um número válido com DDD"
	MsgInvalidName      = "Por favor, digite seu nome completo"
	MsgInvalidEmail     = "Email inválido"
	MsgSubmitFailed     = "Não foi possível enviar seus dados. Tente novamente."
)

// ErrorSubmit keys the error shown when the completed form could not be stored.
const ErrorSubmit = "submit"

// Transition reports what Next or Back did to the state.
type Transition int

const (
	Stayed Transition = iota
	Advanced
	Retreated
	Rejected
	Completed
)

func (t Transition) String() string {
	switch t {
	case Stayed:
		return "stayed"
	case Advanced:
		return "advanced"
	case Retreated:
		return "retreated"
	case Rejected:
		return "rejected"
	case Completed:
		return "completed"
	}
	return fmt.Sprintf("Transition(%d)", int(t))
}

// State is a visitor's position in the wizard plus everything answered so far.
type State struct {
	Step     int               `json:"step"`
	Rejected bool              `json:"rejected"`
	Answers  Answers           `json:"answers"`
	Errors   map[string]string `json:"errors,omitempty"`
	// LeadID is set once the lead has been stored.
	LeadID string `json:"leadId,omitempty"`
}

// NewState returns a wizard positioned on the first question.
func NewState() *State {
	return &State{Step: FirstStep}
}

// Set updates one field and clears its error.
func (s *State) Set(field, value string) error {
	if err := s.Answers.Set(field, value); err != nil {
		return err
	}
	delete(s.Errors, field)
	return nil
}

func (s *State) fail(field, msg string) Transition {
	s.Errors = map[string]string{field: msg}
	return Stayed
}

// Next runs the guard of the current step and moves forward when it passes.
// Choosing "nao" on the qualification step diverts to the rejection view.
func (s *State) Next() Transition {
	a := s.Answers
	switch s.Step {
	case 1:
		if SituationLabel(a.Situation) == "" {
			return s.fail(FieldSituation, MsgSelectOption)
		}
	case 2:
		if ProblemLabel(a.Problem) == "" {
			return s.fail(FieldProblem, MsgSelectAtLeastOne)
		}
	case 3:
		if ImplicationLabel(a.Implication) == "" {
			return s.fail(FieldImplication, MsgSelectOption)
		}
	case QualificationStep:
		switch a.AcceptsPrivate {
		case AcceptsPrivateYes:
		case AcceptsPrivateNo:
			s.Rejected = true
			return Rejected
		default:
			return s.fail(FieldAcceptsPrivate, MsgSelectOption)
		}
	case PhoneStep:
		if !ValidatePhone(a.Phone) {
			return s.fail(FieldPhone, MsgInvalidPhone)
		}
	case NameStep:
		if !ValidateName(a.Name) {
			return s.fail(FieldName, MsgInvalidName)
		}
	case EmailStep:
		if !ValidateEmail(a.Email) {
			return s.fail(FieldEmail, MsgInvalidEmail)
		}
	case FinalStep:
		return Stayed
	}

	s.Errors = nil
	s.Step++
	if s.Step == FinalStep {
		return Completed
	}
	return Advanced
}

// Back moves one step back, never past the first one. The success screen
// has no way back.
func (s *State) Back() Transition {
	if s.Step <= FirstStep || s.Step >= FinalStep {
		return Stayed
	}
	s.Step--
	s.Errors = nil
	return Retreated
}

// Reopen puts a completed wizard back on the email step after its lead
// could not be stored, so the visitor can try again.
func (s *State) Reopen() {
	s.Step = EmailStep
	s.fail(ErrorSubmit, MsgSubmitFailed)
}

// Reset starts over with an empty form.
func (s *State) Reset() {
	*s = State{Step: FirstStep}
}

// Progress is the percentage of the bar filled for the current step.
func (s *State) Progress() float64 {
	return float64(s.Step) * 100 / TotalSteps
}
