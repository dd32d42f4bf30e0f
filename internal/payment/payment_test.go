package payment_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/frahmantamala/gym-management/internal"
	paymentmodel "github.com/frahmantamala/gym-management/internal/core/datamodel/payment"
	"github.com/frahmantamala/gym-management/internal/payment"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var testModes = payment.Modes{"cash": decimal.Zero, "card": dec("2.5"), "upi": dec("0")}

var _ = Describe("Payment", func() {
	DescribeTable("DeriveStatus",
		func(paid, total, want string) {
			Expect(payment.DeriveStatus(dec(paid), dec(total))).To(Equal(want))
		},
		Entry("nothing paid", "0", "1000", paymentmodel.StatusPending),
		Entry("some paid", "0.01", "1000", paymentmodel.StatusPartial),
		Entry("exactly paid", "1000", "1000", paymentmodel.StatusFull),
		Entry("free membership", "0", "0", paymentmodel.StatusPending),
	)

	Describe("QuoteFor", func() {
		It("adds the mode fee to the base", func() {
			q, err := payment.QuoteFor(testModes, dec("1000"), "card")
			Expect(err).ToNot(HaveOccurred())
			Expect(q.FeeAmount.String()).To(Equal("25"))
			Expect(q.TotalAmount.String()).To(Equal("1025"))
		})

		It("rounds the fee to cents", func() {
			q, err := payment.QuoteFor(testModes, dec("333.33"), "card")
			Expect(err).ToNot(HaveOccurred())
			Expect(q.FeeAmount.StringFixed(2)).To(Equal("8.33"))
			Expect(q.TotalAmount.StringFixed(2)).To(Equal("341.66"))
		})

		It("rejects an unknown mode", func() {
			_, err := payment.QuoteFor(testModes, dec("10"), "cheque")
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeUnknownPaymentMode))
		})

		It("rejects a negative base", func() {
			_, err := payment.QuoteFor(testModes, dec("-1"), "cash")
			Expect(err).To(HaveOccurred())
		})

		It("rejects a zero base as a validation error", func() {
			_, err := payment.QuoteFor(testModes, decimal.Zero, "cash")
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(400))
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidAmount))
		})
	})

	Describe("New", func() {
		It("derives the status from the amount paid", func() {
			q, _ := payment.QuoteFor(testModes, dec("1000"), "cash")
			p, err := payment.New(1, 2, 3, q, dec("1000"))
			Expect(err).ToNot(HaveOccurred())
			Expect(p.Status).To(Equal(paymentmodel.StatusFull))
			Expect(p.FeePercent.IsZero()).To(BeTrue())
		})

		It("rejects paying more than the total", func() {
			q, _ := payment.QuoteFor(testModes, dec("1000"), "cash")
			_, err := payment.New(1, 2, 3, q, dec("1000.01"))
			Expect(err).To(MatchError(payment.ErrOverpayment))
		})
	})

	Describe("Collect", func() {
		var p *paymentmodel.Payment

		BeforeEach(func() {
			q, _ := payment.QuoteFor(testModes, dec("1000"), "card")
			var err error
			p, err = payment.New(1, 2, 3, q, decimal.Zero)
			Expect(err).ToNot(HaveOccurred())
		})

		It("moves from pending through partial to full", func() {
			Expect(p.Status).To(Equal(paymentmodel.StatusPending))
			Expect(payment.Collect(p, dec("25"))).To(Succeed())
			Expect(p.Status).To(Equal(paymentmodel.StatusPartial))
			Expect(payment.Collect(p, dec("1000"))).To(Succeed())
			Expect(p.Status).To(Equal(paymentmodel.StatusFull))
		})

		It("rejects overpayment without changing the row", func() {
			Expect(payment.Collect(p, dec("2000"))).To(MatchError(payment.ErrOverpayment))
			Expect(p.PaidAmount.IsZero()).To(BeTrue())
		})

		It("rejects non-positive amounts", func() {
			Expect(payment.Collect(p, decimal.Zero)).ToNot(Succeed())
		})
	})

	Describe("Reprice", func() {
		It("restores the base when switching to a fee-free mode", func() {
			q, _ := payment.QuoteFor(testModes, dec("1000"), "card")
			p, err := payment.New(1, 2, 3, q, dec("500"))
			Expect(err).ToNot(HaveOccurred())
			Expect(p.TotalAmount.String()).To(Equal("1025"))

			cash, _ := payment.QuoteFor(testModes, p.BaseAmount, "cash")
			Expect(payment.Reprice(p, cash)).To(Succeed())
			Expect(p.TotalAmount.String()).To(Equal("1000"))

			card, _ := payment.QuoteFor(testModes, p.BaseAmount, "card")
			Expect(payment.Reprice(p, card)).To(Succeed())
			Expect(p.TotalAmount.String()).To(Equal("1025"))
			Expect(p.Status).To(Equal(paymentmodel.StatusPartial))
		})

		It("marks the payment full when the new total is already covered", func() {
			q, _ := payment.QuoteFor(testModes, dec("1000"), "cash")
			p, _ := payment.New(1, 2, 3, q, dec("800"))

			lower, _ := payment.QuoteFor(testModes, dec("800"), "cash")
			Expect(payment.Reprice(p, lower)).To(Succeed())
			Expect(p.Status).To(Equal(paymentmodel.StatusFull))
		})

		It("refuses a total below what was paid", func() {
			q, _ := payment.QuoteFor(testModes, dec("1000"), "cash")
			p, _ := payment.New(1, 2, 3, q, dec("900"))

			lower, _ := payment.QuoteFor(testModes, dec("500"), "cash")
			Expect(payment.Reprice(p, lower)).ToNot(Succeed())
			Expect(p.TotalAmount.String()).To(Equal("1000"))
		})
	})

	It("reports the balance in the view", func() {
		q, _ := payment.QuoteFor(testModes, dec("1000"), "card")
		p, _ := payment.New(1, 2, 3, q, dec("400"))
		view := payment.FromDataModel(p)
		Expect(view.Balance.String()).To(Equal("625"))
		Expect(view.Status).To(Equal(paymentmodel.StatusPartial))
	})
})
