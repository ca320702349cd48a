package receipt

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LocalStorage", func() {
	var (
		tmpDir  string
		storage Storage
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		var err error
		storage, err = NewLocalStorage(filepath.Join(tmpDir, "receipts"))
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Save", func() {
		var (
			filename  string
			savedPath string
			err       error
		)

		BeforeEach(func() {
			filename = "test-id_영수증.jpg"
		})

		JustBeforeEach(func() {
			savedPath, err = storage.Save(filename, []byte("test file content"))
		})

		When("saving succeeds", func() {
			It("should return the name", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(savedPath).To(Equal(filename))
			})

			It("should save the file to disk", func() {
				Expect(filepath.Join(tmpDir, "receipts", filename)).To(BeAnExistingFile())
			})
		})

		When("the name escapes the storage directory", func() {
			BeforeEach(func() {
				filename = "../escape.jpg"
			})

			It("should refuse it", func() {
				Expect(err).To(HaveOccurred())
				Expect(filepath.Join(tmpDir, "escape.jpg")).NotTo(BeAnExistingFile())
			})
		})
	})

	Describe("Get", func() {
		When("the file exists", func() {
			BeforeEach(func() {
				_, err := storage.Save("a.png", []byte("png"))
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return its content", func() {
				data, err := storage.Get("a.png")
				Expect(err).NotTo(HaveOccurred())
				Expect(data).To(Equal([]byte("png")))
			})
		})

		When("the file does not exist", func() {
			It("should return a not-exist error", func() {
				_, err := storage.Get("missing.png")
				Expect(err).To(MatchError(os.ErrNotExist))
			})
		})
	})

	Describe("Delete", func() {
		It("should remove the file", func() {
			_, err := storage.Save("a.png", []byte("png"))
			Expect(err).NotTo(HaveOccurred())
			Expect(storage.Delete("a.png")).To(Succeed())
			Expect(filepath.Join(tmpDir, "receipts", "a.png")).NotTo(BeAnExistingFile())
		})

		It("should fail for missing files", func() {
			Expect(storage.Delete("missing.png")).NotTo(Succeed())
		})
	})
})
