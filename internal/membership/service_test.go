package membership_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/frahmantamala/gym-management/internal"
	paymentmodel "github.com/frahmantamala/gym-management/internal/core/datamodel/payment"
	"github.com/frahmantamala/gym-management/internal/core/events"
	"github.com/frahmantamala/gym-management/internal/membership"
	"github.com/frahmantamala/gym-management/internal/payment"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var testModes = payment.Modes{"cash": decimal.Zero, "card": dec("2.5")}

var _ = Describe("Service", func() {
	var (
		store *memoryStore
		bus   *recordingBus
		svc   *membership.Service
		ctx   context.Context
		clock time.Time
	)

	BeforeEach(func() {
		store = newMemoryStore()
		bus = &recordingBus{}
		svc = membership.NewService(store, testModes, bus, quietLogger)
		clock = time.Date(2024, 1, 31, 10, 0, 0, 0, time.UTC)
		svc.SetClock(func() time.Time { return clock })
		ctx = staffContext(3)
	})

	createOne := func() *membership.Membership {
		m, err := svc.Create(ctx, membership.CreateMembershipDTO{MemberID: 10, PlanID: 20})
		Expect(err).ToNot(HaveOccurred())
		return m
	}

	Describe("Create", func() {
		It("starts today and ends after the plan duration", func() {
			m := createOne()

			Expect(m.Status).To(Equal(membership.StatusActive))
			Expect(m.StartDate).To(Equal(day(2024, 1, 31)))
			Expect(m.EndDate).To(Equal(day(2024, 2, 29)))
			Expect(m.CreatedBy).To(Equal(int64(7)))
			Expect(store.audits).To(HaveLen(1))
			Expect(store.audits[0].Action).To(Equal("membership.created"))
			Expect(store.audits[0].EntityID).To(Equal(m.ID))
			Expect(store.audits[0].UserRole).To(Equal("front_desk"))
			Expect(bus.types()).To(Equal([]string{events.EventTypeMembershipCreated}))
		})

		It("records the first payment priced from the plan", func() {
			_, err := svc.Create(ctx, membership.CreateMembershipDTO{
				MemberID: 10,
				PlanID:   20,
				InitialPayment: &membership.InitialPaymentDTO{
					PaymentMode: "card",
					PaidAmount:  dec("500"),
				},
			})
			Expect(err).ToNot(HaveOccurred())

			Expect(store.payments).To(HaveLen(1))
			p := store.payments[0]
			Expect(p.TotalAmount.Equal(dec("1025"))).To(BeTrue())
			Expect(p.Status).To(Equal(paymentmodel.StatusPartial))
			Expect(store.audits[0].Details).To(ContainSubstring(`"payment_status":"partial"`))
		})

		It("rolls back everything when the payment is invalid", func() {
			_, err := svc.Create(ctx, membership.CreateMembershipDTO{
				MemberID:       10,
				PlanID:         20,
				InitialPayment: &membership.InitialPaymentDTO{PaymentMode: "crypto"},
			})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeUnknownPaymentMode))
			Expect(store.memberships).To(BeEmpty())
			Expect(store.audits).To(BeEmpty())
			Expect(bus.types()).To(BeEmpty())
		})

		It("rejects a zero initial payment base before touching the store", func() {
			zero := decimal.Zero
			_, err := svc.Create(ctx, membership.CreateMembershipDTO{
				MemberID:       10,
				PlanID:         20,
				InitialPayment: &membership.InitialPaymentDTO{BaseAmount: &zero, PaymentMode: "cash"},
			})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(400))
			Expect(store.memberships).To(BeEmpty())
		})

		It("refuses to bill a free plan", func() {
			free := store.plans[20]
			free.ID, free.Price = 22, decimal.Zero
			store.plans[22] = free

			_, err := svc.Create(ctx, membership.CreateMembershipDTO{
				MemberID:       10,
				PlanID:         22,
				InitialPayment: &membership.InitialPaymentDTO{PaymentMode: "cash"},
			})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidAmount))
			Expect(store.memberships).To(BeEmpty())
			Expect(store.payments).To(BeEmpty())
		})

		It("rolls back when the audit write fails", func() {
			store.failAudit = true
			_, err := svc.Create(ctx, membership.CreateMembershipDTO{MemberID: 10, PlanID: 20})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(500))
			Expect(store.memberships).To(BeEmpty())
		})

		It("hides another company's member", func() {
			_, err := svc.Create(ctx, membership.CreateMembershipDTO{MemberID: 11, PlanID: 20})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(404))
		})

		It("rejects an inactive plan", func() {
			_, err := svc.Create(ctx, membership.CreateMembershipDTO{MemberID: 10, PlanID: 21})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(400))
		})

		It("requires a tenant", func() {
			_, err := svc.Create(context.Background(), membership.CreateMembershipDTO{MemberID: 10, PlanID: 20})
			Expect(err).To(MatchError(internal.ErrNoTenantContext))
		})
	})

	Describe("Transition", func() {
		var id int64

		BeforeEach(func() {
			clock = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
			created, err := svc.Create(ctx, membership.CreateMembershipDTO{MemberID: 10, PlanID: 20})
			Expect(err).ToNot(HaveOccurred())
			id = created.ID
		})

		hold := func() (*membership.LifecycleResult, error) {
			return svc.Transition(ctx, id, membership.LifecycleDTO{Action: "hold", HoldReason: "injury", HoldDuration: 2, HoldUnit: "weeks"})
		}

		It("puts a membership on hold and records history", func() {
			res, err := svc.Transition(ctx, id, membership.LifecycleDTO{Action: "Hold", HoldReason: "injury", HoldDuration: 14, HoldUnit: "Days"})

			Expect(err).ToNot(HaveOccurred())
			Expect(res.Success).To(BeTrue())
			Expect(res.Message).To(Equal("Membership put on hold"))
			Expect(res.Membership.Status).To(Equal(membership.StatusOnHold))
			Expect(store.openHolds(id)).To(Equal(1))
			Expect(store.audits[len(store.audits)-1].Action).To(Equal("membership.held"))
			Expect(bus.types()).To(ContainElement(events.EventTypeMembershipHeld))
		})

		It("extends the end date on resume and closes the hold", func() {
			_, err := svc.Transition(ctx, id, membership.LifecycleDTO{Action: "hold", HoldReason: "injury", HoldDuration: 1, HoldUnit: "months"})
			Expect(err).ToNot(HaveOccurred())

			clock = clock.AddDate(0, 0, 7)
			res, err := svc.Transition(ctx, id, membership.LifecycleDTO{Action: "resume"})
			Expect(err).ToNot(HaveOccurred())

			Expect(res.Message).To(Equal("Membership resumed"))
			Expect(res.Membership.Status).To(Equal(membership.StatusActive))
			Expect(res.Membership.EndDate).To(Equal(day(2024, 4, 8)))
			Expect(res.Membership.IsOnHold).To(BeFalse())
			Expect(store.openHolds(id)).To(BeZero())

			holds, err := svc.Holds(ctx, id)
			Expect(err).ToNot(HaveOccurred())
			Expect(holds).To(HaveLen(1))
			Expect(holds[0].DaysOnHold).To(Equal(7))
			Expect(*holds[0].HoldEndDate).To(Equal(day(2024, 4, 1)))
			Expect(holds[0].ResumedAt).ToNot(BeNil())
			Expect(store.audits[len(store.audits)-1].Action).To(Equal("membership.resumed"))
		})

		It("rejects a second hold and leaves state unchanged", func() {
			_, err := svc.Transition(ctx, id, membership.LifecycleDTO{Action: "hold", HoldReason: "injury", HoldDuration: 5, HoldUnit: "days"})
			Expect(err).ToNot(HaveOccurred())
			audits := len(store.audits)

			_, err = svc.Transition(ctx, id, membership.LifecycleDTO{Action: "hold", HoldReason: "again", HoldDuration: 5, HoldUnit: "days"})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeInvalidTransition))
			Expect(appErr.Code).To(Equal(internal.ErrCodeHoldAlreadyOpen))
			Expect(store.openHolds(id)).To(Equal(1))
			Expect(store.audits).To(HaveLen(audits))
		})

		It("rejects resuming an active membership", func() {
			_, err := svc.Transition(ctx, id, membership.LifecycleDTO{Action: "resume"})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(400))
			Expect(appErr.Message).To(Equal("membership is not on hold"))
		})

		It("rejects an invalid unit", func() {
			_, err := hold()
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidDuration))
		})

		It("does not find another company's membership", func() {
			_, err := svc.Transition(staffContext(4), id, membership.LifecycleDTO{Action: "resume"})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(404))
		})

		It("keeps the hold when the audit write fails", func() {
			store.failAudit = true
			_, err := svc.Transition(ctx, id, membership.LifecycleDTO{Action: "hold", HoldReason: "injury", HoldDuration: 5, HoldUnit: "days"})
			Expect(err).To(HaveOccurred())
			Expect(store.openHolds(id)).To(BeZero())
			Expect(store.memberships[id].Status).To(Equal(membership.StatusActive))
		})
	})

	Describe("reads", func() {
		It("derives expiry at read time", func() {
			m := createOne()
			clock = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

			got, err := svc.Get(ctx, m.ID)
			Expect(err).ToNot(HaveOccurred())
			Expect(got.Status).To(Equal(membership.StatusExpired))
			Expect(store.memberships[m.ID].Status).To(Equal(membership.StatusActive))
		})

		It("lists a member's memberships", func() {
			createOne()
			list, err := svc.ListByMember(ctx, 10)
			Expect(err).ToNot(HaveOccurred())
			Expect(list).To(HaveLen(1))
		})

		It("checks the membership before listing holds", func() {
			_, err := svc.Holds(ctx, 999)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeMembershipNotFound))
		})
	})

	Describe("plans", func() {
		It("creates a plan with an audit entry", func() {
			plan, err := svc.CreatePlan(ctx, membership.CreatePlanDTO{Name: " Quarterly ", DurationMonths: 3, Price: dec("2700.456")})

			Expect(err).ToNot(HaveOccurred())
			Expect(plan.Name).To(Equal("Quarterly"))
			Expect(plan.Price.String()).To(Equal("2700.46"))
			Expect(store.audits).To(HaveLen(1))
			Expect(store.audits[0].EntityID).To(Equal(plan.ID))
			Expect(store.plans).To(HaveKey(plan.ID))
		})

		It("validates the plan", func() {
			_, err := svc.CreatePlan(ctx, membership.CreatePlanDTO{Name: "Bad", DurationMonths: 0, Price: dec("-1")})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(400))
		})

		It("lists plans for the company", func() {
			plans, err := svc.Plans(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(plans).To(HaveLen(2))
		})
	})
})
