package stocks

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/net/html"
)

// WikipediaTickerSource scrapes ticker symbols from the S&P 500
// constituents page.
type WikipediaTickerSource struct {
	PageURL    string
	HTTPClient *http.Client
}

func (s *WikipediaTickerSource) Tickers(ctx context.Context) ([]string, error) {
	client := s.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	return FetchTickers(ctx, client, s.PageURL)
}

// FetchTickers extracts the S&P 500 companies' ticker symbols from the
// constituents table of the Wikipedia page. The symbol is the first td cell
// of each data row; Wikipedia writes class shares with a dot (BRK.B) where
// the chart API expects a dash (BRK-B).
func FetchTickers(ctx context.Context, client *http.Client, pageURL string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("ticker page http status=%d body=%q", resp.StatusCode, string(body))
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse ticker page: %w", err)
	}

	table := findByID(doc, "constituents")
	if table == nil {
		return nil, fmt.Errorf("constituents table not found in %s", pageURL)
	}

	var tickers []string
	forEachElement(table, "tr", func(tr *html.Node) {
		// The header row has th cells only, so it contributes nothing.
		td := firstElement(tr, "td")
		if td == nil {
			return
		}
		symbol := strings.TrimSpace(textContent(td))
		if symbol == "" {
			return
		}
		tickers = append(tickers, strings.ReplaceAll(symbol, ".", "-"))
	})
	if len(tickers) == 0 {
		return nil, fmt.Errorf("no tickers found in constituents table of %s", pageURL)
	}
	return tickers, nil
}

func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode {
		for _, attr := range n.Attr {
			if attr.Key == "id" && attr.Val == id {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

func forEachElement(n *html.Node, tag string, fn func(*html.Node)) {
	if n.Type == html.ElementNode && n.Data == tag {
		fn(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		forEachElement(c, tag, fn)
	}
}

func firstElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := firstElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
