package openai

import (
	"fmt"
	"time"
)

var weekdayNames = [...]string{"domingo", "segunda-feira", "terça-feira", "quarta-feira", "quinta-feira", "sexta-feira", "sábado"}

const extractionPrompt = `Você analisa mensagens de clientes de um salão de beleza enviadas pelo WhatsApp.

Leia a última mensagem do cliente, usando as mensagens anteriores apenas como contexto, e devolva um JSON com:

- intent: o que o cliente quer nesta mensagem
  - "schedule": quer marcar, remarcar ou continuar um agendamento, ou informou serviço, data ou horário
  - "hours": pergunta sobre horário de funcionamento do salão
  - "faq": faz uma pergunta geral (preço, endereço, formas de pagamento, como funciona um serviço)
  - "create_user": quer se cadastrar ou atualizar nome e telefone
  - "other": saudações, agradecimentos ou qualquer outra coisa
- question: a pergunta do cliente quando intent for "faq", senão vazio
- name: nome completo do cliente, se ele informar
- phone: telefone com DDD, apenas dígitos, se ele informar
- email: e-mail, se ele informar
- serviceName: o serviço pedido exatamente como o cliente escreveu (ex.: "corte feminino", "unha", "escova")
- date: data pedida no formato AAAA-MM-DD
- time: horário pedido no formato HH:MM (24 horas)
- professionalName: profissional de preferência, se ele citar

Regras:
- Nunca invente valores. Campo não mencionado fica como string vazia.
- Converta datas relativas ("hoje", "amanhã", "sexta", "dia 15") usando a data de hoje informada abaixo.
  Se o dia do mês já passou neste mês, use o mês seguinte.
- "3 da tarde" é 15:00, "9 da manhã" é 09:00, "meio-dia" é 12:00.
- Não corrija nem complete o nome do serviço; o sistema faz a busca no catálogo.`

// systemPrompt returns the extraction instructions anchored to the given moment,
// so relative dates resolve in the salon's timezone.
func systemPrompt(now time.Time) string {
	return fmt.Sprintf("%s\n\nHoje é %s, %s. Fuso horário: %s.",
		extractionPrompt,
		weekdayNames[now.Weekday()],
		now.Format("2006-01-02"),
		now.Location().String(),
	)
}
