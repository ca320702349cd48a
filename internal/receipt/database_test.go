package receipt

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/receipt-audit/internal/audit"
	"github.com/zombor/receipt-audit/internal/parsing"
)

func testRecord(id string) *Record {
	now := time.Date(2025, 10, 3, 16, 50, 0, 0, time.UTC)
	return &Record{
		ID: id,
		Receipt: &parsing.Receipt{
			ReceiptID: id,
			StoreName: "GS25 연세점",
			Date:      "2025-10-03 16:47",
			Items: []parsing.LineItem{
				{ID: 1, Name: "삼각김밥", UnitPrice: 1200, Count: 1, Price: 1200},
			},
			TotalPrice: 1200,
		},
		Filename:    id + "_receipt.jpg",
		ContentType: "image/jpeg",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

var _ = Describe("BoltDB", func() {
	var (
		dbPath string
		db     *BoltDB
	)

	BeforeEach(func() {
		dbPath = filepath.Join(GinkgoT().TempDir(), "test.db")
		var err error
		db, err = NewBoltDB(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	Describe("SaveRecord", func() {
		var (
			record *Record
			err    error
		)

		BeforeEach(func() {
			record = testRecord("test-id")
		})

		JustBeforeEach(func() {
			err = db.SaveRecord(record)
		})

		When("saving succeeds", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should round trip the receipt", func() {
				saved, getErr := db.GetRecord("test-id")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(saved).To(Equal(record))
			})
		})

		When("an audit result is attached", func() {
			BeforeEach(func() {
				record.Audit = &audit.Result{
					Decision:   audit.DecisionAnomaly,
					Score:      0.8,
					Violations: []audit.Violation{{ItemID: 1, Reason: "금지 품목", PolicyReference: "제3조"}},
					Reasoning:  "rule",
				}
			})

			It("should persist it", func() {
				saved, getErr := db.GetRecord("test-id")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(saved.Audit).To(Equal(record.Audit))
			})
		})

		When("the record has no id", func() {
			BeforeEach(func() {
				record.ID = ""
			})

			It("should return an error", func() {
				Expect(err).To(HaveOccurred())
			})
		})

		When("the record is saved again", func() {
			It("should replace the previous version", func() {
				record.Receipt.TotalPrice = 9999
				Expect(db.SaveRecord(record)).To(Succeed())
				records, listErr := db.ListRecords()
				Expect(listErr).NotTo(HaveOccurred())
				Expect(records).To(HaveLen(1))
				Expect(records[0].Receipt.TotalPrice).To(Equal(9999))
			})
		})
	})

	Describe("GetRecord", func() {
		When("the record does not exist", func() {
			It("should return ErrNotFound", func() {
				_, err := db.GetRecord("missing")
				Expect(err).To(MatchError(ErrNotFound))
			})
		})
	})

	Describe("ListRecords", func() {
		When("the database is empty", func() {
			It("should return an empty slice", func() {
				records, err := db.ListRecords()
				Expect(err).NotTo(HaveOccurred())
				Expect(records).NotTo(BeNil())
				Expect(records).To(BeEmpty())
			})
		})

		When("records exist", func() {
			BeforeEach(func() {
				Expect(db.SaveRecord(testRecord("a"))).To(Succeed())
				Expect(db.SaveRecord(testRecord("b"))).To(Succeed())
			})

			It("should return all of them", func() {
				records, err := db.ListRecords()
				Expect(err).NotTo(HaveOccurred())
				Expect(records).To(HaveLen(2))
				Expect(records[0].ID).To(Equal("a"))
				Expect(records[1].ID).To(Equal("b"))
			})
		})
	})

	Describe("DeleteRecord", func() {
		BeforeEach(func() {
			Expect(db.SaveRecord(testRecord("test-id"))).To(Succeed())
		})

		It("should remove the record", func() {
			Expect(db.DeleteRecord("test-id")).To(Succeed())
			_, err := db.GetRecord("test-id")
			Expect(err).To(MatchError(ErrNotFound))
		})
	})

	Describe("reopening", func() {
		It("should keep saved records", func() {
			Expect(db.SaveRecord(testRecord("test-id"))).To(Succeed())
			Expect(db.Close()).To(Succeed())

			var err error
			db, err = NewBoltDB(dbPath)
			Expect(err).NotTo(HaveOccurred())
			_, err = db.GetRecord("test-id")
			Expect(err).NotTo(HaveOccurred())
		})
	})
})
