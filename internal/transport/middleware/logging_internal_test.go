package middleware

import (
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("log filtering", func() {
	It("masks sensitive JSON keys at any depth", func() {
		body := filterSensitiveBody([]byte(`{"email":"a@gym.test","password":"pw","nested":{"verification_code":"123456"}}`))
		Expect(body).To(ContainSubstring(`"email":"a@gym.test"`))
		Expect(body).NotTo(ContainSubstring("pw\""))
		Expect(body).NotTo(ContainSubstring("123456"))
	})

	It("hides non-JSON bodies that mention secrets", func() {
		Expect(filterSensitiveBody([]byte("token=abc"))).To(HavePrefix("[FILTERED"))
		Expect(filterSensitiveBody([]byte("hello"))).To(Equal("hello"))
	})

	It("masks credential headers", func() {
		headers := http.Header{}
		headers.Set("Authorization", "Bearer abc")
		headers.Set("Cookie", "gym_session=abc")
		headers.Set("Accept", "application/json")

		filtered := filterSensitiveHeaders(headers)
		Expect(filtered["Authorization"]).To(Equal("[FILTERED]"))
		Expect(filtered["Cookie"]).To(Equal("[FILTERED]"))
		Expect(filtered["Accept"]).To(Equal("application/json"))
	})
})
