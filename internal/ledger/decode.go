package ledger

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"golang.org/x/text/encoding/charmap"
)

var ErrEmptyExtract = errors.New("dashboard extract is empty")

// OpenFileAndDecode reads a ';'-separated Latin-1 dashboard CSV.
func OpenFileAndDecode(path string) (dataframe.DataFrame, error) {
	file, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer file.Close()

	return Decode(file)
}

// Decode parses the extract with every column kept as text; numbers are
// parsed later so Brazilian and plain decimal notations both survive.
func Decode(r io.Reader) (dataframe.DataFrame, error) {
	decoded := charmap.ISO8859_1.NewDecoder().Reader(r)
	df := dataframe.ReadCSV(decoded,
		dataframe.WithDelimiter(';'),
		dataframe.WithLazyQuotes(true),
		dataframe.DetectTypes(false),
	)
	if df.Err != nil {
		// gota reports a header-only file as an empty DataFrame error
		if strings.Contains(df.Err.Error(), "empty DataFrame") {
			return dataframe.DataFrame{}, ErrEmptyExtract
		}
		return dataframe.DataFrame{}, fmt.Errorf("failed to read extract: %w", df.Err)
	}
	if df.Nrow() == 0 {
		return dataframe.DataFrame{}, ErrEmptyExtract
	}
	return df, nil
}
