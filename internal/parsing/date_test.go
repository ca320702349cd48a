package parsing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ExtractDate", func() {
	var (
		texts []string
		date  string
		found bool
	)

	JustBeforeEach(func() {
		date, found = ExtractDate(texts, DefaultTables())
	})

	DescribeTable("date and time on one line",
		func(line string, expected string) {
			got, ok := ExtractDate([]string{line}, DefaultTables())
			Expect(ok).To(BeTrue())
			Expect(got).To(Equal(expected))
		},
		Entry("four digit year", "2025-10-03 16:47", "2025-10-03 16:47"),
		Entry("time glued to the date", "2025-10-0316:47", "2025-10-03 16:47"),
		Entry("two digit year with slashes", "25/09/21 15:47", "2025-09-21 15:47"),
		Entry("dotted date", "2025.1.5 9:05", "2025-01-05 09:05"),
	)

	When("a context line has the date and a separate time line follows", func() {
		BeforeEach(func() {
			texts = []string{"거래일시: 2025.10.03", "시간: 16:47"}
		})

		It("combines them", func() {
			Expect(found).To(BeTrue())
			Expect(date).To(Equal("2025-10-03 16:47"))
		})
	})

	When("a context line uses a Korean afternoon time", func() {
		BeforeEach(func() {
			texts = []string{"결제일시 2025-10-03 오후 3:05"}
		})

		It("converts it to 24-hour time", func() {
			Expect(date).To(Equal("2025-10-03 15:05"))
		})
	})

	When("a context line uses 오전 12", func() {
		BeforeEach(func() {
			texts = []string{"판매일자 2025-10-03 오전 12:30"}
		})

		It("maps it to midnight", func() {
			Expect(date).To(Equal("2025-10-03 00:30"))
		})
	})

	When("an unlabelled date precedes the labelled one", func() {
		BeforeEach(func() {
			texts = []string{"2024-01-01 10:00 인쇄", "거래일시 2025-10-03 16:47"}
		})

		It("prefers the labelled line", func() {
			Expect(date).To(Equal("2025-10-03 16:47"))
		})
	})

	When("a business registration line looks like a date", func() {
		BeforeEach(func() {
			texts = []string{"사업자 2023.01.05 등록", "2025-10-03"}
		})

		It("skips it", func() {
			Expect(date).To(Equal("2025-10-03"))
		})
	})

	When("the time is bracketed on a nearby line", func() {
		BeforeEach(func() {
			texts = []string{"2025-10-03", "POS 01", "[16:47]"}
		})

		It("picks it up", func() {
			Expect(date).To(Equal("2025-10-03 16:47"))
		})
	})

	When("the time stands alone with seconds", func() {
		BeforeEach(func() {
			texts = []string{"2025/10/03", "16:47:22"}
		})

		It("drops the seconds", func() {
			Expect(date).To(Equal("2025-10-03 16:47"))
		})
	})

	When("a later line carries both date and time", func() {
		BeforeEach(func() {
			texts = []string{"2025-10-01", "2025-10-03 16:47"}
		})

		It("returns the complete timestamp", func() {
			Expect(date).To(Equal("2025-10-03 16:47"))
		})
	})

	When("the nearby time is out of range", func() {
		BeforeEach(func() {
			texts = []string{"2025-10-03", "25:99"}
		})

		It("returns the date alone", func() {
			Expect(date).To(Equal("2025-10-03"))
		})
	})

	When("the only date is outside the accepted years", func() {
		BeforeEach(func() {
			texts = []string{"2035-01-01"}
		})

		It("finds nothing", func() {
			Expect(found).To(BeFalse())
			Expect(date).To(BeEmpty())
		})
	})

	When("the date passes validation but is not a calendar day", func() {
		BeforeEach(func() {
			texts = []string{"2025-02-31 10:00"}
		})

		It("keeps the raw value rather than dropping it", func() {
			Expect(date).To(Equal("2025-02-31 10:00"))
		})
	})
})
