package ocr

import (
	"regexp"
	"strings"
)

var (
	accountRe = regexp.MustCompile(`(?i)\b(?:account|acct)\s*(?:number|no\.?|#)?\s*[:#]?\s*([A-Z0-9][A-Z0-9\-]{2,})`)
	dobRe     = regexp.MustCompile(`(?i)\b(?:DOB|Date\s+of\s+Birth)[^0-9]*(\d{1,2}[\-/]\d{1,2}[\-/]\d{2,4})`)
	nameRe    = regexp.MustCompile(`(?i)\b(?:patient\s+name|resident\s+name|name|patient)\s*[:\-]?\s*([A-Za-z][A-Za-z\-']*)`)
)

// ParseFields pulls the account number, first name and raw date of birth out
// of statement header text. Confidence is the share of the three fields found.
func ParseFields(text string) *Fields {
	fields := &Fields{Raw: text}

	found := 0
	if v := firstGroup(accountRe, text); v != nil {
		fields.AccountNumber = v
		found++
	}
	if v := firstGroup(dobRe, text); v != nil {
		fields.DOBRaw = v
		found++
	}
	if v := firstGroup(nameRe, text); v != nil {
		fields.FirstName = v
		found++
	}

	confidence := float64(found) / 3
	fields.Confidence = &confidence

	return fields
}

func firstGroup(re *regexp.Regexp, text string) *string {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return nil
	}
	v := strings.TrimSpace(m[1])
	if v == "" {
		return nil
	}
	return &v
}
