package ocr

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("MergeLines", func() {
	var (
		detections []Detection
		lines      []Line
	)

	JustBeforeEach(func() {
		lines = MergeLines(detections)
	})

	When("there are no detections", func() {
		BeforeEach(func() {
			detections = nil
		})

		It("returns an empty, non-nil slice", func() {
			Expect(lines).NotTo(BeNil())
			Expect(lines).To(BeEmpty())
		})
	})

	When("fragments share a row", func() {
		BeforeEach(func() {
			detections = []Detection{
				{Text: "1,200", Confidence: 0.8, Box: rect(300, 102, 60, 20)},
				{Text: "삼각김밥", Confidence: 1.0, Box: rect(10, 100, 80, 20)},
				{Text: "GS25", Confidence: 0.9, Box: rect(10, 0, 60, 20)},
			}
		})

		It("orders rows top to bottom and fragments left to right", func() {
			Expect(Texts(lines)).To(Equal([]string{"GS25", "삼각김밥 1,200"}))
		})

		It("averages the confidence", func() {
			Expect(lines[1].Confidence).To(BeNumerically("~", 0.9, 1e-9))
		})

		It("boxes the whole row", func() {
			Expect(lines[1].Box).To(Equal(Box{{X: 10, Y: 100}, {X: 360, Y: 100}, {X: 360, Y: 122}, {X: 10, Y: 122}}))
		})

		It("does not reorder the input", func() {
			Expect(detections[0].Text).To(Equal("1,200"))
			Expect(detections[2].Text).To(Equal("GS25"))
		})

		It("never produces more lines than detections", func() {
			Expect(len(lines)).To(BeNumerically("<=", len(detections)))
		})

		It("is stable when merged lines are merged again", func() {
			again := make([]Detection, len(lines))
			for i, l := range lines {
				again[i] = Detection(l)
			}
			Expect(Texts(MergeLines(again))).To(Equal(Texts(lines)))
		})
	})

	When("a row is slanted", func() {
		BeforeEach(func() {
			// Height 10 gives a threshold of 10 after the floor is applied
			detections = []Detection{
				{Text: "a", Confidence: 1, Box: rect(0, 0, 10, 10)},
				{Text: "b", Confidence: 1, Box: rect(20, 8, 10, 10)},
				{Text: "c", Confidence: 1, Box: rect(40, 16, 10, 10)},
			}
		})

		It("anchors the row on its first fragment", func() {
			Expect(Texts(lines)).To(Equal([]string{"a b", "c"}))
		})
	})

	When("no detection has a height", func() {
		BeforeEach(func() {
			detections = []Detection{
				{Text: "top", Box: rect(0, 0, 10, 0)},
				{Text: "near", Box: rect(20, 14, 10, 0)},
				{Text: "far", Box: rect(0, 30, 10, 0)},
			}
		})

		It("uses the fallback threshold", func() {
			Expect(RowThreshold(detections)).To(Equal(fallbackThreshold))
			Expect(Texts(lines)).To(Equal([]string{"top near", "far"}))
		})
	})
})

var _ = Describe("RowThreshold", func() {
	It("scales the mean height", func() {
		Expect(RowThreshold([]Detection{{Box: rect(0, 0, 10, 40)}, {Box: rect(0, 50, 10, 60)}})).To(BeNumerically("~", 30.0, 1e-9))
	})

	It("never drops below the floor", func() {
		Expect(RowThreshold([]Detection{{Box: rect(0, 0, 10, 5)}})).To(Equal(minThreshold))
	})
})
