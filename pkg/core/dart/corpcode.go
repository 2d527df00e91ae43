package dart

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fin_ratio/pkg/models"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
)

const (
	corpCodeCacheFile = "CORPCODE.xml"
	corpCodeCacheTTL  = 24 * time.Hour
)

// CorpIndex maps exact company names to their registry entries.
type CorpIndex map[string][]models.CompanyInfo

// Lookup returns the entry for name. Listed companies win over unlisted
// ones sharing the same name.
func (idx CorpIndex) Lookup(name string) (*models.CompanyInfo, bool) {
	entries := idx[strings.TrimSpace(name)]
	if len(entries) == 0 {
		return nil, false
	}
	for _, e := range entries {
		if e.StockCode != "" {
			found := e
			return &found, true
		}
	}
	found := entries[0]
	return &found, true
}

// ParseCorpCodes reads the corpCode.xml registry.
func ParseCorpCodes(r io.Reader) (CorpIndex, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, eris.Wrap(err, "parse corp code registry")
	}

	idx := CorpIndex{}
	doc.Find("list").Each(func(_ int, s *goquery.Selection) {
		info := models.CompanyInfo{
			CorpCode:   childText(s, "corp_code"),
			CorpName:   childText(s, "corp_name"),
			StockCode:  childText(s, "stock_code"),
			ModifyDate: childText(s, "modify_date"),
		}
		if info.CorpCode == "" || info.CorpName == "" {
			return
		}
		idx[info.CorpName] = append(idx[info.CorpName], info)
	})
	return idx, nil
}

func childText(s *goquery.Selection, tag string) string {
	return strings.TrimSpace(s.ChildrenFiltered(tag).First().Text())
}

// unzipRegistry extracts the first XML file from the corpCode archive.
func unzipRegistry(data []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, eris.Wrap(err, "open corp code archive")
	}
	for _, zf := range zr.File {
		if !strings.EqualFold(filepath.Ext(zf.Name), ".xml") {
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			return nil, eris.Wrapf(err, "open %s in archive", zf.Name)
		}
		defer rc.Close()
		out, err := io.ReadAll(rc)
		if err != nil {
			return nil, eris.Wrapf(err, "read %s", zf.Name)
		}
		return out, nil
	}
	return nil, eris.New("no XML file found in corp code archive")
}

// corpIndex returns the in-memory registry, loading it from the disk cache or
// the upstream on first use.
func (c *Client) corpIndex(ctx context.Context) (CorpIndex, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.corps != nil {
		return c.corps, nil
	}

	data, ok := c.readCachedRegistry()
	if !ok {
		archive, err := c.get(ctx, CorpCodeEndpoint, nil)
		if err != nil {
			return nil, err
		}
		data, err = unzipRegistry(archive)
		if err != nil {
			return nil, eris.Wrapf(ErrUpstream, "corp code archive: %v", err)
		}
		c.writeCachedRegistry(data)
	}

	idx, err := ParseCorpCodes(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	c.log.Info().Int("companies", len(idx)).Msg("corp code registry loaded")
	c.corps = idx
	return idx, nil
}

func (c *Client) readCachedRegistry() ([]byte, bool) {
	if c.cacheDir == "" {
		return nil, false
	}
	path := filepath.Join(c.cacheDir, corpCodeCacheFile)
	info, err := os.Stat(path)
	if err != nil || c.now().Sub(info.ModTime()) > corpCodeCacheTTL {
		return nil, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return data, true
}

func (c *Client) writeCachedRegistry(data []byte) {
	if c.cacheDir == "" {
		return
	}
	if err := os.MkdirAll(c.cacheDir, 0755); err != nil {
		c.log.Warn().Err(err).Msg("failed to create cache dir")
		return
	}
	if err := os.WriteFile(filepath.Join(c.cacheDir, corpCodeCacheFile), data, 0644); err != nil {
		c.log.Warn().Err(err).Msg("failed to cache corp code registry")
	}
}
