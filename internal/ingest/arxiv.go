package ingest

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"paperscope/internal/extract"
	"paperscope/internal/util"
)

const (
	arxivPDFBase    = "https://arxiv.org/pdf/"
	arxivEPrintBase = "https://arxiv.org/e-print/"
	arxivAPIBase    = "http://export.arxiv.org/api/query?id_list="
)

// resolveArxiv downloads the PDF and, best-effort, the Atom metadata and
// LaTeX source bundle as sidecars next to it.
func (r *Resolver) resolveArxiv(ctx context.Context, source string) (Resolved, error) {
	id := ArxivID(source)
	if id == "" {
		return Resolved{}, fmt.Errorf("not a recognizable arXiv identifier: %q", source)
	}
	pdfPath, err := r.fetchToFile(ctx, arxivPDFBase+id, id+".pdf")
	if err != nil {
		return Resolved{}, fmt.Errorf("arxiv pdf: %w", err)
	}
	out := Resolved{PDFPath: pdfPath, SourceType: "arxiv_id", ArxivID: id}

	if meta, err := r.fetchArxivMetadata(ctx, id); err != nil {
		out.FetchErrors = append(out.FetchErrors, fmt.Sprintf("arxiv metadata: %v", err))
	} else {
		metaPath := sidecarPath(pdfPath, ".meta.json")
		if err := util.WriteJSONAtomic(metaPath, meta); err != nil {
			out.FetchErrors = append(out.FetchErrors, fmt.Sprintf("write metadata sidecar: %v", err))
		} else {
			out.MetaPath = metaPath
		}
	}

	if tex, err := r.fetchArxivTeX(ctx, id); err != nil {
		out.FetchErrors = append(out.FetchErrors, fmt.Sprintf("arxiv e-print: %v", err))
	} else if tex != "" {
		texPath := sidecarPath(pdfPath, ".source.tex")
		if err := util.WriteTextAtomic(texPath, tex); err != nil {
			out.FetchErrors = append(out.FetchErrors, fmt.Sprintf("write tex sidecar: %v", err))
		} else {
			out.TeXPath = texPath
		}
	}
	return out, nil
}

type atomFeed struct {
	Entries []struct {
		Title   string `xml:"title"`
		Summary string `xml:"summary"`
		Authors []struct {
			Name string `xml:"name"`
		} `xml:"author"`
	} `xml:"entry"`
}

func (r *Resolver) fetchArxivMetadata(ctx context.Context, id string) (extract.SidecarMetadata, error) {
	raw, err := r.fetchBytes(ctx, arxivAPIBase+id)
	if err != nil {
		return extract.SidecarMetadata{}, err
	}
	return parseArxivAtom(raw, id)
}

func parseArxivAtom(raw []byte, id string) (extract.SidecarMetadata, error) {
	var feed atomFeed
	if err := xml.Unmarshal(raw, &feed); err != nil {
		return extract.SidecarMetadata{}, fmt.Errorf("parse atom feed: %w", err)
	}
	if len(feed.Entries) == 0 {
		return extract.SidecarMetadata{}, fmt.Errorf("no entry for %s", id)
	}
	entry := feed.Entries[0]
	meta := extract.SidecarMetadata{
		ArxivID:  id,
		Title:    strings.Join(strings.Fields(entry.Title), " "),
		Abstract: strings.TrimSpace(entry.Summary),
	}
	for _, a := range entry.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			meta.Authors = append(meta.Authors, name)
		}
	}
	return meta, nil
}

// fetchArxivTeX downloads the e-print bundle and concatenates its .tex
// members. Bundles come as gzipped tar archives or as a single gzipped file.
func (r *Resolver) fetchArxivTeX(ctx context.Context, id string) (string, error) {
	raw, err := r.fetchBytes(ctx, arxivEPrintBase+id)
	if err != nil {
		return "", err
	}
	return extractTeX(raw)
}

func extractTeX(raw []byte) (string, error) {
	body := raw
	if gz, err := gzip.NewReader(bytes.NewReader(raw)); err == nil {
		if unzipped, err := io.ReadAll(gz); err == nil {
			body = unzipped
		}
		_ = gz.Close()
	}

	var parts []string
	tr := tar.NewReader(bytes.NewReader(body))
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Not a tar archive: treat the payload as a single TeX file if
			// it looks like one.
			if looksLikeTeX(body) {
				return string(body), nil
			}
			return "", fmt.Errorf("e-print is neither tar nor tex")
		}
		if hdr.Typeflag != tar.TypeReg || filepath.Ext(hdr.Name) != ".tex" {
			continue
		}
		content, err := io.ReadAll(tr)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", hdr.Name, err)
		}
		parts = append(parts, string(content))
	}
	return strings.Join(parts, "\n\n"), nil
}

func looksLikeTeX(body []byte) bool {
	head := body
	if len(head) > 4096 {
		head = head[:4096]
	}
	return bytes.Contains(head, []byte(`\documentclass`)) || bytes.Contains(head, []byte(`\begin{document}`))
}
