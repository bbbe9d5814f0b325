// Package classify maps a scanned path to one of the fine-grained cleanup
// categories. Classification is an ordered list of (predicate, category)
// rules evaluated first-match-wins; the order resolves overlapping signals
// (a .log inside a browser directory is logs, not browser cache) and must
// not be reordered.
package classify

import (
	"path/filepath"
	"strings"
)

// Category identifies one cleanup category.
type Category = string

const (
	SystemCoreFiles         Category = "system_core_files"
	DriverPackages          Category = "driver_packages"
	WindowsUpdateCache      Category = "windows_update_cache"
	SystemTempFiles         Category = "system_temp_files"
	TemporaryFiles          Category = "temporary_files"
	AppRuntimeCache         Category = "app_runtime_cache"
	PackageManagerCache     Category = "package_manager_cache"
	BrowserCacheFiles       Category = "browser_cache_files"
	BrowserProfileData      Category = "browser_profile_data"
	ThumbnailCacheFiles     Category = "thumbnail_cache_files"
	CrashDumpFiles          Category = "crash_dump_files"
	ApplicationLogFiles     Category = "application_log_files"
	GameData                Category = "game_data"
	ChatMediaData           Category = "chat_media_data"
	ImageRasterFiles        Category = "image_raster_files"
	ImageVectorFiles        Category = "image_vector_files"
	ImageRawFiles           Category = "image_raw_files"
	VideoStandardFiles      Category = "video_standard_files"
	VideoProductionFiles    Category = "video_production_files"
	AudioLossyFiles         Category = "audio_lossy_files"
	AudioLosslessFiles      Category = "audio_lossless_files"
	WordDocuments           Category = "word_documents"
	SpreadsheetDocuments    Category = "spreadsheet_documents"
	PresentationDocuments   Category = "presentation_documents"
	PDFDocuments            Category = "pdf_documents"
	DocumentTextFiles       Category = "document_text_files"
	StructuredDataDocuments Category = "structured_data_documents"
	ArchiveFiles            Category = "archive_files"
	DiskImageFiles          Category = "disk_image_files"
	DatabaseFiles           Category = "database_files"
	VirtualMachineFiles     Category = "virtual_machine_files"
	SourceCodeFiles         Category = "source_code_files"
	ScriptFiles             Category = "script_files"
	InstallerPackages       Category = "installer_packages"
	ExecutableBinaries      Category = "executable_binaries"
	SoftwareRuntimeFiles    Category = "software_runtime_files"
	FontFiles               Category = "font_files"
	LargeFiles              Category = "large_files"
	OtherFiles              Category = "other_files"
)

func set(exts ...string) map[string]bool {
	m := make(map[string]bool, len(exts))
	for _, e := range exts {
		m[e] = true
	}
	return m
}

var (
	imageRasterExt = set(".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp", ".heic", ".avif", ".tif", ".tiff", ".ico")
	imageVectorExt = set(".svg", ".eps", ".ai")
	imageRawExt    = set(".raw", ".cr2", ".cr3", ".nef", ".arw", ".dng", ".orf", ".rw2")

	videoStandardExt   = set(".mp4", ".mkv", ".avi", ".mov", ".wmv", ".flv", ".webm", ".m4v", ".ts")
	videoProductionExt = set(".m2ts", ".mts", ".r3d", ".braw", ".dav", ".prores")

	audioLossyExt    = set(".mp3", ".aac", ".ogg", ".m4a", ".wma", ".opus")
	audioLosslessExt = set(".flac", ".wav", ".ape", ".alac", ".aiff")

	docWordExt        = set(".doc", ".docx", ".odt", ".wps", ".rtf")
	docSpreadsheetExt = set(".xls", ".xlsx", ".csv", ".tsv", ".ods", ".numbers")
	docPresentExt     = set(".ppt", ".pptx", ".odp", ".key")
	docPDFExt         = set(".pdf")
	docTextExt        = set(".txt", ".md", ".markdown")
	docStructuredExt  = set(".json", ".xml", ".yaml", ".yml", ".toml", ".ini", ".conf", ".cfg")

	archiveExt   = set(".zip", ".rar", ".7z", ".tar", ".gz", ".bz2", ".xz", ".zst")
	diskImageExt = set(".iso", ".img", ".dmg")

	sourceCodeExt = set(
		".py", ".js", ".ts", ".tsx", ".jsx", ".java", ".go", ".rs", ".c", ".cpp",
		".h", ".hpp", ".cs", ".php", ".rb", ".swift", ".kt", ".sql", ".html",
		".css", ".scss", ".vue",
	)
	scriptExt = set(".bat", ".cmd", ".ps1", ".sh", ".vbs", ".ahk")

	databaseExt       = set(".db", ".sqlite", ".sqlite3", ".mdb", ".accdb", ".edb", ".db-wal", ".db-shm")
	virtualMachineExt = set(".vhd", ".vhdx", ".vdi", ".vmdk", ".qcow2")

	installerExt  = set(".msi", ".msix", ".appx", ".cab", ".pkg")
	executableExt = set(".exe", ".dll", ".sys", ".ocx", ".drv")
	fontExt       = set(".ttf", ".otf", ".woff", ".woff2")

	systemExt    = set(".dll", ".sys", ".mui", ".cat")
	driverExt    = set(".inf", ".pnf")
	thumbDBExt   = set(".db", ".db-wal", ".db-shm")
)

var gamePathKeywords = []string{
	`\steam\`,
	`\epic games\`,
	`\riot games\`,
	`\blizzard\`,
	`\battle.net\`,
	`\minecraft\`,
	`\games\`,
	`\hoyoverse\`,
	`\genshin impact\`,
}

var browserPathKeywords = []string{`\chrome\`, `\edge\`, `\firefox\`, `\browser\`, `\msedge\`}

var browserProfileKeywords = []string{
	`\indexeddb\`,
	`\local storage\`,
	`\service worker\`,
	`\session storage\`,
	`\extension state\`,
	`\cache storage\`,
	`\cookies\`,
}

var chatPathKeywords = []string{
	`\wechat\`,
	`\tencent files\`,
	`\qq\`,
	`\ding`,
	`\feishu\`,
	`\discord\`,
	`\telegram\`,
	`\whatsapp\`,
}

var packageCacheKeywords = []string{`\pip\cache\`, `\npm-cache\`, `\yarn\cache\`, `\nuget\cache\`}

// input carries the precomputed, lowercased views of a path that predicates
// match against.
type input struct {
	path string // normalized: lowercase, backslash separators
	name string
	ext  string
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// categoryRule is one step of the classification ladder.
type categoryRule struct {
	name     string
	match    func(in input) bool
	category Category
}

func extRule(name string, exts map[string]bool, cat Category) categoryRule {
	return categoryRule{name, func(in input) bool { return exts[in.ext] }, cat}
}

// orderedRules is the full classification ladder, evaluated in sequence.
// Path-signature rules come before extension tables so that location context
// wins over file type.
var orderedRules = []categoryRule{
	{"system-core", func(in input) bool {
		return strings.HasPrefix(in.path, `c:\windows\`) || strings.Contains(in.path, `\system32\`) || systemExt[in.ext]
	}, SystemCoreFiles},
	{"windows-update-cache", func(in input) bool {
		return strings.Contains(in.path, `softwaredistribution\download`)
	}, WindowsUpdateCache},
	{"driver-packages", func(in input) bool {
		return strings.Contains(in.path, `\windows\system32\driverstore\`) || driverExt[in.ext]
	}, DriverPackages},
	{"system-temp", func(in input) bool {
		return strings.Contains(in.path, `\windows\temp\`)
	}, SystemTempFiles},
	{"game-data", func(in input) bool {
		return containsAny(in.path, gamePathKeywords)
	}, GameData},
	{"chat-media", func(in input) bool {
		return containsAny(in.path, chatPathKeywords)
	}, ChatMediaData},
	{"user-temp", func(in input) bool {
		return strings.Contains(in.path, `appdata\local\temp`) || strings.HasSuffix(in.path, ".tmp")
	}, TemporaryFiles},
	{"browser-profile", func(in input) bool {
		return containsAny(in.path, browserPathKeywords) && containsAny(in.path, browserProfileKeywords)
	}, BrowserProfileData},
	{"browser-cache", func(in input) bool {
		return containsAny(in.path, browserPathKeywords) &&
			(strings.Contains(in.path, "cache") || strings.Contains(in.path, "code cache") || strings.Contains(in.path, "gpucache"))
	}, BrowserCacheFiles},
	{"thumbnail-cache", func(in input) bool {
		return strings.Contains(in.name, "thumbcache") ||
			(strings.Contains(in.path, `\microsoft\windows\explorer\`) && thumbDBExt[in.ext])
	}, ThumbnailCacheFiles},
	{"package-manager-cache", func(in input) bool {
		return containsAny(in.path, packageCacheKeywords)
	}, PackageManagerCache},
	{"crash-dumps", func(in input) bool {
		return strings.Contains(in.path, `\crashdumps\`) || in.ext == ".dmp"
	}, CrashDumpFiles},
	{"logs", func(in input) bool {
		return strings.Contains(in.path, `\logs\`) || in.ext == ".log" || in.ext == ".etl"
	}, ApplicationLogFiles},

	extRule("image-raw", imageRawExt, ImageRawFiles),
	extRule("image-vector", imageVectorExt, ImageVectorFiles),
	extRule("image-raster", imageRasterExt, ImageRasterFiles),
	extRule("video-production", videoProductionExt, VideoProductionFiles),
	extRule("video-standard", videoStandardExt, VideoStandardFiles),
	extRule("audio-lossless", audioLosslessExt, AudioLosslessFiles),
	extRule("audio-lossy", audioLossyExt, AudioLossyFiles),
	extRule("doc-spreadsheet", docSpreadsheetExt, SpreadsheetDocuments),
	extRule("doc-presentation", docPresentExt, PresentationDocuments),
	extRule("doc-word", docWordExt, WordDocuments),
	extRule("doc-pdf", docPDFExt, PDFDocuments),
	extRule("doc-structured", docStructuredExt, StructuredDataDocuments),
	extRule("doc-text", docTextExt, DocumentTextFiles),
	extRule("archive", archiveExt, ArchiveFiles),
	extRule("disk-image", diskImageExt, DiskImageFiles),
	extRule("database", databaseExt, DatabaseFiles),
	extRule("virtual-machine", virtualMachineExt, VirtualMachineFiles),
	extRule("source-code", sourceCodeExt, SourceCodeFiles),
	extRule("script", scriptExt, ScriptFiles),

	{"installer", func(in input) bool {
		return installerExt[in.ext] || (in.ext == ".exe" && strings.Contains(in.name, "setup"))
	}, InstallerPackages},
	extRule("executable", executableExt, ExecutableBinaries),
	extRule("font", fontExt, FontFiles),

	{"program-files", func(in input) bool {
		return strings.Contains(in.path, `\program files\`) || strings.Contains(in.path, `\program files (x86)\`)
	}, SoftwareRuntimeFiles},
	{"generic-cache", func(in input) bool {
		return strings.Contains(in.path, "cache") || strings.Contains(in.path, "code cache") || strings.Contains(in.path, "gpucache")
	}, AppRuntimeCache},
}

// legacyAliases remaps older rule category hints onto the current taxonomy.
var legacyAliases = map[string]Category{
	"system_files":       SystemCoreFiles,
	"software_cache":     AppRuntimeCache,
	"log_and_dump_files": ApplicationLogFiles,
	"image_files":        ImageRasterFiles,
	"video_files":        VideoStandardFiles,
	"audio_files":        AudioLossyFiles,
	"document_files":     DocumentTextFiles,
	"software_files":     SoftwareRuntimeFiles,
	"system_cache":       WindowsUpdateCache,
	"temp":               TemporaryFiles,
	"cache":              AppRuntimeCache,
	"logs":               ApplicationLogFiles,
	"browser_cache":      BrowserCacheFiles,
}

// Classify resolves the category for path, falling back to the originating
// rule's category hint (remapped through the legacy alias table) and finally
// to OtherFiles. Pure: same inputs always yield the same category.
func Classify(path string, fallback string) Category {
	norm := strings.ToLower(strings.ReplaceAll(path, "/", `\`))
	in := input{
		path: norm,
		name: strings.ToLower(filepath.Base(strings.ReplaceAll(path, `\`, "/"))),
		ext:  strings.ToLower(ext(norm)),
	}

	for _, r := range orderedRules {
		if r.match(in) {
			return r.category
		}
	}

	if mapped, ok := legacyAliases[fallback]; ok {
		return mapped
	}
	if fallback != "" {
		return fallback
	}
	return OtherFiles
}

// ext extracts the final extension from a normalized path, honoring the
// double-barrel database suffixes (.db-wal, .db-shm).
func ext(norm string) string {
	base := norm
	if i := strings.LastIndex(base, `\`); i >= 0 {
		base = base[i+1:]
	}
	if strings.HasSuffix(base, ".db-wal") {
		return ".db-wal"
	}
	if strings.HasSuffix(base, ".db-shm") {
		return ".db-shm"
	}
	i := strings.LastIndex(base, ".")
	if i < 0 {
		return ""
	}
	return base[i:]
}
