package sec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilingSummaryURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"inline viewer",
			"https://www.sec.gov/ix?doc=/Archives/edgar/data/320193/000032019323000106/aapl-20230930.htm",
			"https://www.sec.gov/Archives/edgar/data/320193/000032019323000106/FilingSummary.xml",
		},
		{
			"plain dated document",
			"https://www.sec.gov/Archives/edgar/data/1234/000000123424000001/abc-20231231.htm",
			"https://www.sec.gov/Archives/edgar/data/1234/000000123424000001/FilingSummary.xml",
		},
		{
			"undated document falls back to directory",
			"https://www.sec.gov/Archives/edgar/data/1234/000000123424000001/form10k.htm",
			"https://www.sec.gov/Archives/edgar/data/1234/000000123424000001/FilingSummary.xml",
		},
		{
			"underscore dated document",
			"https://www.sec.gov/Archives/edgar/data/1234/000000123424000001/abc_20231231.htm",
			"https://www.sec.gov/Archives/edgar/data/1234/000000123424000001/FilingSummary.xml",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilingSummaryURL(tt.in))
		})
	}
}

func TestPeriodFromFilename(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"abc-20231231.htm", "2023-12-31", false},
		{"/ix?doc=/Archives/edgar/data/1/2/aapl-20230930.htm", "2023-09-30", false},
		{"msft-10k_20230630.htm", "2023-06-30", false},
		{"abc_20240331.htm", "2024-03-31", false},
		{"abc-20230231.htm", "", true}, // not a calendar date
		{"abc-20231331.htm", "", true},
		{"form10k.htm", "", true},
		{"ABC-20231231.htm", "", true}, // prefix must be lowercase
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := PeriodFromFilename(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestDocumentLink(t *testing.T) {
	href, err := documentLink([]byte(indexPage("10-K", "/Archives/x/abc-20231231.htm")), "10-K")
	require.NoError(t, err)
	assert.Equal(t, "/Archives/x/abc-20231231.htm", href)

	_, err = documentLink([]byte(indexPage("10-K", "/Archives/x/abc-20231231.htm")), "10-Q")
	assert.Error(t, err)
}

func TestFilingDateFromContent(t *testing.T) {
	d := filingDateFromContent(`<filing-date>2024-02-10</filing-date><filing-type>10-K</filing-type>`)
	assert.Equal(t, "2024-02-10", d.Format("2006-01-02"))
	assert.True(t, filingDateFromContent("").IsZero())
}
