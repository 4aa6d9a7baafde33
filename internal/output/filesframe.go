package output

import (
	"sort"

	"github.com/trackql/fetcher/internal/identifiers"
)

// FilesFrame is the files-listing result shape: one row per label, one
// column per attribute name (sorted), cells holding the resolved local path
// or nil when the file wasn't downloaded (spec.md §4.7.4).
type FilesFrame struct {
	Attributes []string // sorted column names
	Labels     []identifiers.Label
	Paths      map[identifiers.Label]map[string]*string
}

// FileDownload is one resolved (or failed) local-file download for a run's
// file-typed attribute.
type FileDownload struct {
	RunIdentifier       identifiers.RunIdentifier
	AttributeDefinition identifiers.AttributeDefinition
	LocalPath           *string // nil when the file didn't exist or wasn't downloaded
}

// BuildFilesFrame assembles a FilesFrame from a flat list of download
// results.
func BuildFilesFrame(downloads []FileDownload, sysIDToLabel map[identifiers.SysId]identifiers.Label) *FilesFrame {
	frame := &FilesFrame{Paths: map[identifiers.Label]map[string]*string{}}

	attrSet := map[string]bool{}
	labelSeen := map[identifiers.Label]bool{}

	for _, d := range downloads {
		label := sysIDToLabel[d.RunIdentifier.SysId]
		attrSet[d.AttributeDefinition.Name] = true
		if !labelSeen[label] {
			labelSeen[label] = true
			frame.Labels = append(frame.Labels, label)
		}
		if frame.Paths[label] == nil {
			frame.Paths[label] = map[string]*string{}
		}
		frame.Paths[label][d.AttributeDefinition.Name] = d.LocalPath
	}

	for attr := range attrSet {
		frame.Attributes = append(frame.Attributes, attr)
	}
	sort.Strings(frame.Attributes)
	sort.Slice(frame.Labels, func(i, j int) bool { return frame.Labels[i] < frame.Labels[j] })

	return frame
}
