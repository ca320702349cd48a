package parsing

// Tables holds the keyword vocabulary the extractors match against.
// A Parser never modifies its tables, so one value may be shared by many parsers.
type Tables struct {
	// DateContext marks lines that label the transaction timestamp, highest priority first
	DateContext []string
	// BusinessRegistration marks lines whose digit groups look like dates but are not
	BusinessRegistration []string
	// Total marks general total/sum lines
	Total []string
	// PriorityTotal marks final payment lines, preferred over Total
	PriorityTotal []string
	// TaxQualifiers turn a total line into a tax subtotal
	TaxQualifiers []string
	// Skip marks lines that never describe a purchased item
	Skip []string
	// StoreSkip marks header lines that cannot be the merchant name
	StoreSkip []string
	// StoreMeta marks card slip and menu header vocabulary in the receipt head
	StoreMeta []string
}

// DefaultTables returns the vocabulary for Korean retail and restaurant receipts
func DefaultTables() Tables {
	return Tables{
		DateContext: []string{
			"거래일시", "계산일자", "발행일시", "승인일시", "결제일시",
			"판매일자", "일시", "일자", "날짜",
		},
		BusinessRegistration: []string{"사업자", "등록번호"},
		Total: []string{
			"합계", "총액", "총합", "결제금액", "총결제",
			"카드결제", "total", "Total", "TOTAL",
		},
		PriorityTotal: []string{"카드결제", "결제금액", "총결제", "총결제금액"},
		TaxQualifiers: []string{"과세", "면세"},
		Skip: []string{
			// receipt metadata
			"사업자", "대표", "전화", "주소", "승인번호", "카드번호",
			"거래일시", "거래번호", "단말기", "가맹점", "캐셔",
			"직원:", "POS", "BILL",
			// tax and subtotals
			"소계", "부가세", "가세", "가액",
			"매출", "세액", "판매계", "판매금",
			"과세물품", "면세물품", "포함됨", "포함된",
			"상품가격",
			// payment
			"결제액", "결제금", "잔여", "거스름", "할인액", "할인일",
			"신용카드", "카드결제", "DV(", "비씨", "BeV",
			"결제수단", "결제내역", "결제대상",
			// membership
			"회원", "포인트", "적립", "마일리지",
			// column headers and misc
			"승인VAN", "일시불", "환불", "교환", "지참",
			"담당", "계산담당", "수량", "금액", "단가", "상품명", "상품코드",
			"주문번호",
			"봉사료", "CATID", "캐셔No", "승인",
			"영수증", "바코드", "SCO:",
			"여신", "금융", "협회",
			"일회용", "비널봉투",
			"할인 내역", "배달비", "주문금액",
			"구매수량",
			"부가세율",
			"제휴할인", "제휴카드", "매출전표",
			"행사할인",
			"결제방식", "원산지",
			"영수",
			// misread 금액
			"글액", "급액",
			"받은돈", "거스름돈", "공급대가",
			"KOCES", "KSNET",
			"공급가", "급가",
			"선택안함",
		},
		StoreSkip: []string{
			"사업자", "등록번호", "대표", "전화", "주소", "TEL",
			"픽업번호", "주문번호", "거래",
			"영수", "고객", "재발행", "대기번호", "매장식사",
		},
		StoreMeta: []string{
			"신용", "전표", "카드", "FOOD", "MARKET",
			"유형", "여신", "금융", "협회", "KOCES",
			"메뉴", "수량",
		},
	}
}
