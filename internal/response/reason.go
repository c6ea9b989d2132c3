// Package response turns generative replies into the normalized shape returned
// to callers and maps every failure to a fixed, user-safe fallback.
package response

import (
	"errors"
	"fmt"
	"net/http"
)

// Reason names why a fallback was produced.
type Reason string

// Fallback reasons.
const (
	ReasonUnknownAction           Reason = "unknown_action"
	ReasonIncompleteMessage       Reason = "incomplete_message"
	ReasonIncomprehensibleMessage Reason = "incomprehensible_message"
	ReasonNoSchedule              Reason = "no_schedule"
	ReasonNoScheduleSlots         Reason = "no_schedule_slots"
	ReasonInternalError           Reason = "internal_error"
	ReasonHumanUnavailable        Reason = "human_unavailable"
	ReasonChatbotUnavailable      Reason = "chatbot_unavailable"
	ReasonLimitReached            Reason = "limit_reached"
	ReasonAbusiveInteraction      Reason = "abusive_interaction"
)

var messages = map[Reason]string{
	ReasonUnknownAction:           "Não entendi o que deseja fazer. Poderia reformular?",
	ReasonIncompleteMessage:       "Poderia passar mais detalhes para que eu possa ajudar?",
	ReasonIncomprehensibleMessage: "Não consegui entender. Poderia dizer de outra forma?",
	ReasonNoSchedule:              "Desculpe, estamos sem agendamentos marcados.",
	ReasonNoScheduleSlots:         "Desculpe, não encontrei agendamentos disponíveis.",
	ReasonInternalError:           "Ocorreu um erro interno. Já estamos verificando!",
	ReasonHumanUnavailable:        "Irei transferir para um atendente humano. Só um instante...",
	ReasonChatbotUnavailable:      "Lamento! O chatbot está indisponível no momento. Por favor, tente novamente mais tarde.",
	ReasonLimitReached:            "Desculpe, mas atingimos o limite de interações. Por favor, tente novamente mais tarde.",
	ReasonAbusiveInteraction:      "Desculpe, mas não podemos aceitar esse tipo de linguagem. Vamos manter o respeito, ok?",
}

// Reasons returns every known reason.
func Reasons() []Reason {
	return []Reason{
		ReasonUnknownAction, ReasonIncompleteMessage, ReasonIncomprehensibleMessage,
		ReasonNoSchedule, ReasonNoScheduleSlots, ReasonInternalError,
		ReasonHumanUnavailable, ReasonChatbotUnavailable, ReasonLimitReached,
		ReasonAbusiveInteraction,
	}
}

// ParseReason maps s to a known reason, defaulting to internal_error.
func ParseReason(s string) Reason {
	r := Reason(s)
	if _, ok := messages[r]; ok {
		return r
	}
	return ReasonInternalError
}

// Message returns the user-facing text of r.
func (r Reason) Message() string {
	if m, ok := messages[r]; ok {
		return m
	}
	return messages[ReasonInternalError]
}

// Status returns the failure status carried by a fallback of r.
func (r Reason) Status() int {
	if r == ReasonAbusiveInteraction {
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// Contract violations raised while normalizing a reply.
var (
	ErrAmbiguousCatalog = errors.New("reply carries both service and services")
	ErrMalformedReply   = errors.New("malformed reply")
)

// ReasonError is an error that names the fallback it should produce.
type ReasonError struct {
	Reason Reason
	Err    error
}

func (e *ReasonError) Error() string {
	if e.Err == nil {
		return string(e.Reason)
	}
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *ReasonError) Unwrap() error { return e.Err }

// WithReason wraps err so that it produces a fallback of reason.
func WithReason(reason Reason, err error) error {
	return &ReasonError{Reason: reason, Err: err}
}

// ReasonOf returns the reason carried by err, or internal_error.
func ReasonOf(err error) Reason {
	var re *ReasonError
	if errors.As(err, &re) {
		return ParseReason(string(re.Reason))
	}
	return ReasonInternalError
}
