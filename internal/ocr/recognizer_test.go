package ocr

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

// mockRecognizer is a mock implementation of Recognizer
type mockRecognizer struct {
	detections []Detection
	err        error
}

func (m *mockRecognizer) Recognize(ctx context.Context, imageData []byte, contentType string) ([]Detection, error) {
	return m.detections, m.err
}

var _ = Describe("PaddleClient", func() {
	var (
		server     *ghttp.Server
		client     *PaddleClient
		detections []Detection
		err        error
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		client, err = NewPaddleClient(server.URL()+"/", 0)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		server.Close()
	})

	JustBeforeEach(func() {
		// PNG input is forwarded without re-encoding
		detections, err = client.Recognize(context.Background(), []byte("fake-png"), "image/png")
	})

	When("the service recognizes text", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest("POST", "/ocr"),
				ghttp.VerifyContentType("application/json"),
				ghttp.VerifyJSON(`{"file":"ZmFrZS1wbmc=","fileType":1}`),
				ghttp.RespondWith(http.StatusOK, `{
					"logId": "abc",
					"errorCode": 0,
					"errorMsg": "Success",
					"result": {"ocrResults": [{"prunedResult": {
						"rec_texts": [" GS25 연세점 ", "흐릿함", "합계 4,800", "깨진상자"],
						"rec_scores": [0.98, 0.3, 0.91, 0.95],
						"rec_polys": [
							[[10,0],[120,0],[120,20],[10,20]],
							[[10,30],[120,30],[120,50],[10,50]],
							[[10,60],[120,60],[120,80],[10,80]],
							[[10,90],[120,90]]
						]
					}}]}
				}`),
			))
		})

		It("does not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("keeps confident, well-formed detections with trimmed text", func() {
			Expect(detections).To(Equal([]Detection{
				{Text: "GS25 연세점", Confidence: 0.98, Box: Box{{10, 0}, {120, 0}, {120, 20}, {10, 20}}},
				{Text: "합계 4,800", Confidence: 0.91, Box: Box{{10, 60}, {120, 60}, {120, 80}, {10, 80}}},
			}))
		})
	})

	When("the service finds nothing", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusOK, `{"errorCode": 0, "result": {"ocrResults": []}}`))
		})

		It("returns an empty result", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(detections).To(BeEmpty())
		})
	})

	When("the service reports an error code", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusOK, `{"errorCode": 500, "errorMsg": "model not loaded"}`))
		})

		It("returns the message", func() {
			Expect(err).To(MatchError(ContainSubstring("model not loaded")))
		})
	})

	When("the service fails", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusInternalServerError, "boom"))
		})

		It("returns the status", func() {
			Expect(err).To(MatchError(ContainSubstring("status 500")))
		})
	})
})

var _ = Describe("NewPaddleClient", func() {
	It("requires a base url", func() {
		_, err := NewPaddleClient("", 0.5)
		Expect(err).To(HaveOccurred())
	})

	It("defaults the confidence cutoff", func() {
		client, err := NewPaddleClient("http://localhost:8080", -1)
		Expect(err).NotTo(HaveOccurred())
		Expect(client.minConfidence).To(Equal(DefaultMinConfidence))
	})
})

var _ = Describe("Extract", func() {
	It("merges recognizer output into lines", func() {
		recognizer := &mockRecognizer{detections: []Detection{
			{Text: "1,200", Confidence: 0.9, Box: rect(200, 0, 50, 20)},
			{Text: "김밥", Confidence: 0.9, Box: rect(0, 0, 50, 20)},
		}}
		lines, err := Extract(context.Background(), recognizer, nil, "image/png")
		Expect(err).NotTo(HaveOccurred())
		Expect(Texts(lines)).To(Equal([]string{"김밥 1,200"}))
	})

	It("wraps recognizer failures", func() {
		cause := errors.New("offline")
		_, err := Extract(context.Background(), &mockRecognizer{err: cause}, nil, "image/png")
		Expect(err).To(MatchError(cause))
	})
})

var _ = Describe("prepareImage", func() {
	It("re-encodes JPEG as PNG", func() {
		img := image.NewRGBA(image.Rect(0, 0, 4, 4))
		img.Set(1, 1, color.White)
		var buf bytes.Buffer
		Expect(jpeg.Encode(&buf, img, nil)).To(Succeed())

		data, err := prepareImage(buf.Bytes(), "IMAGE/JPEG")
		Expect(err).NotTo(HaveOccurred())
		Expect(data[:8]).To(Equal([]byte("\x89PNG\r\n\x1a\n")))
	})

	It("rejects unknown formats", func() {
		_, err := prepareImage([]byte("definitely not an image"), "")
		Expect(err).To(MatchError(ContainSubstring("unsupported image format")))
	})

	It("detects HEIC by its brand", func() {
		Expect(isHEICFormat([]byte("\x00\x00\x00\x18ftypheic"))).To(BeTrue())
		Expect(isHEICFormat([]byte("\x00\x00\x00\x18ftypisom"))).To(BeFalse())
	})
})
