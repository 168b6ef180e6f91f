package dialog

import (
	"fmt"
	"strings"
	"time"

	"github.com/NextMind-AI/marlie/catalog"
)

const (
	replyAskService      = "Qual serviço você gostaria de agendar?"
	replyAskDate         = "Para qual data você gostaria de agendar %s?"
	replyAskTime         = "Qual horário você prefere?"
	replyBadDate         = "Não consegui entender a data. Pode informar como 25/12 ou \"amanhã\"?"
	replyPastDate        = "Essa data já passou. Para qual data você gostaria de agendar?"
	replyBadTime         = "Não consegui entender o horário. Pode informar como 14:00 ou 14h?"
	replyPastTime        = "Esse horário já passou. Qual outro horário você prefere?"
	replyUnavailable     = "Infelizmente esse horário não está disponível: %s. Qual outro horário você prefere?"
	replyConfirmed       = "Perfeito! Seu agendamento está confirmado: %s em %s às %s. Código do agendamento: %s."
	replyCommitFailed    = "Desculpe, não consegui concluir seu agendamento agora. Você pode tentar novamente em instantes ou, se preferir, falar com nossa equipe."
	replyAskPhone        = "Para continuar, qual é o seu telefone com DDD?"
	replyBadPhone        = "Não consegui entender o telefone. Pode enviar com DDD, por exemplo 63999998888?"
	replyAskName         = "Claro! Qual é o seu nome completo?"
	replyRegistered      = "Cadastro concluído, %s! Quer agendar algum serviço?"
	replyRegisterFailed  = "Desculpe, não consegui concluir seu cadastro agora. Pode tentar novamente em instantes?"
	replyServiceNotFound = "Não encontrei o serviço \"%s\". Pode me dizer o nome de outra forma?"
	replyServiceOptions  = "Encontrei estas opções para \"%s\":"
	replyInvalidOption   = "Não encontrei essa opção. Escolha um número da lista:"
	replyServiceGone     = "O serviço %s não está mais disponível."
	replyCatalogError    = "Desculpe, tive um problema ao consultar nossos serviços. Pode tentar novamente?"
	replyGeneric         = "Posso ajudar você a agendar um serviço no salão. Qual serviço você gostaria?"
	replyFAQ             = "Ainda não tenho essa informação por aqui. Posso ajudar com agendamentos ou com nosso horário de funcionamento."
	replyEmpty           = "Não recebi nenhuma mensagem. Como posso ajudar?"
	replyPickNumber      = "Responda com o número da opção desejada."
)

// numberedOptions renders options as "1. Name (60 min - R$ 90,00)" lines.
func numberedOptions(options []catalog.Service) string {
	lines := make([]string, 0, len(options))
	for i, svc := range options {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, svc.Label()))
	}
	return strings.Join(lines, "\n")
}

func optionsReply(header string, options []catalog.Service) string {
	return header + "\n" + numberedOptions(options) + "\n" + replyPickNumber
}

func displayDate(date string) string {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return date
	}
	return t.Format("02/01/2006")
}

func firstName(name string) string {
	if fields := strings.Fields(name); len(fields) > 0 {
		return fields[0]
	}
	return name
}
