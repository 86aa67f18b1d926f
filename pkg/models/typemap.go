package models

import "strings"

// MapCaptureType maps a capture-agent type string onto the closed ItemType
// enum. The mapping is total: anything unrecognized lands on TypeUnknown
// rather than leaking raw strings into the store. Web articles captured by
// the browser extension arrive as "ARTICLE" and are stored as WEB, since the
// extension only ever produces page captures.
func MapCaptureType(raw string) ItemType {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "WEB", "ARTICLE", "WEBPAGE", "URL", "LINK":
		return TypeWeb
	case "IMAGE", "SCREENSHOT", "PNG", "JPG", "JPEG":
		return TypeImage
	case "NOTE", "TEXT", "SELECTION":
		return TypeNote
	case "PDF":
		return TypePDF
	case "WORD", "DOC", "DOCX":
		return TypeWord
	case "EPUB":
		return TypeEPUB
	case "MARKDOWN", "MD":
		return TypeMarkdown
	case "PPT", "PPTX", "POWERPOINT":
		return TypePPT
	case "EXCEL", "XLS", "XLSX":
		return TypeExcel
	default:
		return TypeUnknown
	}
}

// ValidItemType reports whether t is a member of the closed enum
func ValidItemType(t ItemType) bool {
	switch t {
	case TypeWeb, TypeArticle, TypeImage, TypeNote, TypePDF, TypeWord,
		TypeEPUB, TypeMarkdown, TypePPT, TypeExcel, TypeUnknown:
		return true
	}
	return false
}
