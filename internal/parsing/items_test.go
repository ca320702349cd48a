package parsing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ExtractItems", func() {
	var (
		texts  []string
		tables Tables
		items  []LineItem
	)

	BeforeEach(func() {
		tables = DefaultTables()
	})

	JustBeforeEach(func() {
		items = ExtractItems(texts, tables)
	})

	When("lines list name, count, unit price and amount", func() {
		BeforeEach(func() {
			texts = []string{"GS25 연세점", "2025-10-03 16:47", "참이슬 2 1,800 3,600", "삼각김밥 1,200"}
		})

		It("emits one item per line", func() {
			Expect(items).To(Equal([]LineItem{
				{ID: 1, Name: "참이슬", UnitPrice: 1800, Count: 2, Price: 3600},
				{ID: 2, Name: "삼각김밥", UnitPrice: 1200, Count: 1, Price: 1200},
			}))
		})
	})

	When("a name line is followed by a barcode line", func() {
		BeforeEach(func() {
			texts = []string{"콜라", "8801104306928 1,500 1 1,500"}
		})

		It("binds the name to the barcode prices", func() {
			Expect(items).To(Equal([]LineItem{
				{ID: 1, Name: "콜라", UnitPrice: 1500, Count: 1, Price: 1500},
			}))
		})
	})

	When("a priced name line is followed by a barcode line", func() {
		BeforeEach(func() {
			texts = []string{"콜라 1,500", "*8801104306928 1,500 2 3,000"}
		})

		It("defers to the barcode line instead of emitting twice", func() {
			Expect(items).To(Equal([]LineItem{
				{ID: 1, Name: "콜라", UnitPrice: 1500, Count: 2, Price: 3000},
			}))
		})
	})

	When("a barcode line has no pending name", func() {
		BeforeEach(func() {
			texts = []string{"서울 강남구 선릉로 431", "8801104306928 1,500"}
		})

		It("emits nothing", func() {
			Expect(items).To(BeEmpty())
		})
	})

	When("a name line is followed by a quantity continuation line", func() {
		BeforeEach(func() {
			texts = []string{"아메리카노", "4,500 2개 0 9,000"}
		})

		It("binds them", func() {
			Expect(items).To(Equal([]LineItem{
				{ID: 1, Name: "아메리카노", UnitPrice: 4500, Count: 2, Price: 9000},
			}))
		})
	})

	When("an add-on option sits between the name and its prices", func() {
		BeforeEach(func() {
			texts = []string{"카페라떼", "+샷추가", "5,000 1개 5,000"}
		})

		It("keeps the pending name", func() {
			Expect(items).To(Equal([]LineItem{
				{ID: 1, Name: "카페라떼", UnitPrice: 5000, Count: 1, Price: 5000},
			}))
		})
	})

	When("a line uses unit price times count", func() {
		BeforeEach(func() {
			texts = []string{"참이슬 1,800 x 2"}
		})

		It("computes the amount", func() {
			Expect(items).To(Equal([]LineItem{
				{ID: 1, Name: "참이슬", UnitPrice: 1800, Count: 2, Price: 3600},
			}))
		})
	})

	When("a line has a count and amount only", func() {
		BeforeEach(func() {
			texts = []string{"버터 2 3,120"}
		})

		It("derives the unit price", func() {
			Expect(items).To(Equal([]LineItem{
				{ID: 1, Name: "버터", UnitPrice: 1560, Count: 2, Price: 3120},
			}))
		})
	})

	When("a discount line follows an item", func() {
		BeforeEach(func() {
			texts = []string{"삼각김밥 1,200", "할인 -3,100"}
		})

		It("appends a negative item", func() {
			Expect(items).To(HaveLen(2))
			Expect(items[1]).To(Equal(LineItem{ID: 2, Name: "할인", UnitPrice: -3100, Count: 1, Price: -3100}))
		})
	})

	When("a discount line carries a running subtotal", func() {
		BeforeEach(func() {
			texts = []string{"스테이크 3 45,000 135,000", "할인 30% -40,500 94,500"}
		})

		It("keeps only the discount amount", func() {
			Expect(items).To(HaveLen(2))
			Expect(items[1]).To(Equal(LineItem{ID: 2, Name: "할인 30%", UnitPrice: -40500, Count: 1, Price: -40500}))
		})
	})

	When("items follow the total line", func() {
		BeforeEach(func() {
			texts = []string{"김밥 3,000", "합계 3,000", "라면 4,000"}
		})

		It("ignores them", func() {
			Expect(items).To(HaveLen(1))
			Expect(items[0].Name).To(Equal("김밥"))
		})
	})

	When("the total keyword is spread out by the recognizer", func() {
		BeforeEach(func() {
			texts = []string{"김밥 3,000", "합 계 3,000", "라면 4,000"}
		})

		It("still stops at it", func() {
			Expect(items).To(HaveLen(1))
		})
	})

	When("a tax subtotal line appears", func() {
		BeforeEach(func() {
			texts = []string{"김밥 3,000", "부가세 300", "라면 4,000"}
		})

		It("skips the tax line but keeps going", func() {
			Expect(items).To(HaveLen(2))
			Expect(items[1].Name).To(Equal("라면"))
		})
	})

	When("lines are recognizer noise", func() {
		BeforeEach(func() {
			texts = []string{"ab 1,000", "@#김밥 1,000", "10% 14,326 143,274"}
		})

		It("discards them", func() {
			Expect(items).To(BeEmpty())
		})
	})

	When("a label fragment ends with a colon", func() {
		BeforeEach(func() {
			texts = []string{"김밥 3,000", "인 액: 1,000"}
		})

		It("drops the label", func() {
			Expect(items).To(HaveLen(1))
		})
	})

	When("a zero priced tag contains a colon", func() {
		BeforeEach(func() {
			texts = []string{"초강추:오리지널 1 0", "김밥 3,000"}
		})

		It("drops the tag and renumbers", func() {
			Expect(items).To(Equal([]LineItem{
				{ID: 1, Name: "김밥", UnitPrice: 3000, Count: 1, Price: 3000},
			}))
		})
	})

	When("a misread card number becomes a price", func() {
		BeforeEach(func() {
			texts = []string{"상품권 20,000,000", "김밥 3,000"}
		})

		It("drops it", func() {
			Expect(items).To(HaveLen(1))
			Expect(items[0].ID).To(Equal(1))
		})
	})

	When("the extracted count is zero", func() {
		BeforeEach(func() {
			texts = []string{"김밥 0 3,000"}
		})

		It("clamps it to one", func() {
			Expect(items).To(HaveLen(1))
			Expect(items[0].Count).To(Equal(1))
		})
	})

	When("custom tables skip a word", func() {
		BeforeEach(func() {
			tables.Skip = append(append([]string{}, tables.Skip...), "김밥")
			texts = []string{"김밥 3,000", "라면 4,000"}
		})

		It("uses the substituted tables", func() {
			Expect(items).To(HaveLen(1))
			Expect(items[0].Name).To(Equal("라면"))
		})

		It("leaves the defaults untouched", func() {
			Expect(DefaultTables().Skip).NotTo(ContainElement("김밥"))
		})
	})

	When("there are no lines", func() {
		BeforeEach(func() {
			texts = nil
		})

		It("returns an empty, non-nil list", func() {
			Expect(items).NotTo(BeNil())
			Expect(items).To(BeEmpty())
		})
	})
})

var _ = Describe("Non-item lines", func() {
	It("let a pending name bind to a following price line", func() {
		Expect(ExtractItems([]string{"김밥", "3,000 1"}, DefaultTables())).To(Equal([]LineItem{
			{ID: 1, Name: "김밥", UnitPrice: 3000, Count: 1, Price: 3000},
		}))
	})

	DescribeTable("are never items and clear the pending name",
		func(line string) {
			Expect(ExtractItems([]string{line}, DefaultTables())).To(BeEmpty())
			Expect(ExtractItems([]string{"김밥", line, "3,000 1"}, DefaultTables())).To(BeEmpty())
		},
		Entry("approval number", "인번호79875041"),
		Entry("payment card name", "스타벅스카드"),
		Entry("quantity shorthand", "6,000 1개"),
		Entry("label ending in a colon", "카 드:"),
	)
})
