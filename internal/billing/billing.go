// Package billing implementa as regras puras de boletos: derivação de
// status pelo vencimento e elegibilidade do desconto PIX. Todo o cálculo
// é feito em centavos.
package billing

import (
	"time"

	"github.com/eduvale/polo-portal/internal/model"
)

// MinPayableCents é o piso do valor a pagar quando há desconto. O desconto
// é reduzido até que o valor a pagar não fique abaixo de R$ 10,00.
const MinPayableCents int64 = 1000

// DiscountOutcome é o resultado da avaliação de desconto de um boleto.
type DiscountOutcome struct {
	Eligible      bool
	DiscountCents int64
	PayableCents  int64
	SavingsCents  int64
}

// SavingsSummary agrega a economia potencial via PIX sobre um conjunto de
// boletos de um mesmo aluno e polo.
type SavingsSummary struct {
	EligibleCount     int
	TotalSavingsCents int64
}

// dueDayEnd retorna o último instante do dia de vencimento, no fuso do
// relógio de avaliação. O vencimento é uma data de calendário: o driver a
// decodifica à meia-noite UTC, e recalcular o limite no fuso do vencimento
// encurtaria o dia em horas em qualquer implantação fora de UTC.
func dueDayEnd(due, now time.Time) time.Time {
	return time.Date(due.Year(), due.Month(), due.Day(), 23, 59, 59, 999999999, now.Location())
}

// DeriveInvoiceStatus calcula o status corrente de um boleto a partir do
// status persistido, do vencimento e do relógio. Retorna o status e se ele
// mudou (pending → overdue). paid e cancelled são terminais e nunca
// regridem, independentemente das datas.
func DeriveInvoiceStatus(status model.InvoiceStatus, dueDate, now time.Time) (model.InvoiceStatus, bool) {
	if status != model.InvoicePending {
		return status, false
	}

	if now.After(dueDayEnd(dueDate, now)) {
		return model.InvoiceOverdue, true
	}

	return model.InvoicePending, false
}

// EvaluateDiscount avalia se o desconto PIX de um boleto vale no instante
// now e qual o valor a pagar resultante. Desconto inelegível é um resultado
// normal, nunca um erro.
func EvaluateDiscount(inv model.Invoice, now time.Time) DiscountOutcome {
	none := DiscountOutcome{PayableCents: inv.AmountCents}

	if inv.Status == model.InvoicePaid || inv.Status == model.InvoiceCancelled {
		return none
	}
	if !inv.DiscountAvailable || inv.DiscountUsed || inv.DiscountCents <= 0 {
		return none
	}

	// O desconto vale durante todo o dia do vencimento.
	if now.After(dueDayEnd(inv.DueDate, now)) {
		return none
	}

	if inv.DiscountMinimumCents > 0 && inv.AmountCents < inv.DiscountMinimumCents {
		return none
	}

	discount := inv.DiscountCents
	payable := inv.AmountCents - discount
	if payable < MinPayableCents {
		discount = inv.AmountCents - MinPayableCents
		payable = MinPayableCents
	}

	// Boleto já no piso ou abaixo dele não comporta desconto algum.
	if discount <= 0 {
		return none
	}

	return DiscountOutcome{
		Eligible:      true,
		DiscountCents: discount,
		PayableCents:  payable,
		SavingsCents:  inv.AmountCents - payable,
	}
}

// SummarizeSavings soma a economia dos boletos elegíveis de um conjunto.
// O chamador é responsável por passar apenas boletos de um único polo.
func SummarizeSavings(invoices []model.Invoice, now time.Time) SavingsSummary {
	var s SavingsSummary
	for _, inv := range invoices {
		out := EvaluateDiscount(inv, now)
		if out.Eligible {
			s.EligibleCount++
			s.TotalSavingsCents += out.SavingsCents
		}
	}
	return s
}
