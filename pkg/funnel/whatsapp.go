package funnel

import (
	"net/url"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultClinicWhatsApp is the clinic's number in international format.
const DefaultClinicWhatsApp = "5547989146073"

var titleCaser = cases.Title(language.BrazilianPortuguese)

// WhatsAppMessage is the pre-filled scheduling message sent by the visitor.
func WhatsAppMessage(a Answers) string {
	var b strings.Builder
	b.WriteString("Olá! Quero agendar meu *Exame de Vista* na Central da Visão.\n\n")
	b.WriteString("*Dados do Paciente:*\n")
	b.WriteString("👤 Nome: " + a.Name + "\n")
	b.WriteString("📱 Telefone: " + a.Phone + "\n")
	b.WriteString("📧 Email: " + a.Email + "\n\n")
	b.WriteString("📋 *Informações:*\n")
	b.WriteString("• Último exame: " + SituationLabel(a.Situation) + "\n")
	b.WriteString("• Sintomas: " + ProblemLabel(a.Problem) + "\n")
	b.WriteString("• Impacto: " + ImplicationLabel(a.Implication))
	return b.String()
}

// WhatsAppLink builds the wa.me deep link that opens a chat with the clinic
// with the scheduling message already typed.
func WhatsAppLink(clinicPhone string, a Answers) string {
	phone := Digits(clinicPhone)
	if phone == "" {
		phone = DefaultClinicWhatsApp
	}
	// wa.me expects %20 rather than '+' for spaces.
	text := strings.ReplaceAll(url.QueryEscape(WhatsAppMessage(a)), "+", "%20")
	return "https://wa.me/" + phone + "?text=" + text
}

// FirstName returns the first word of a full name, title-cased for greetings.
func FirstName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return titleCaser.String(fields[0])
}
