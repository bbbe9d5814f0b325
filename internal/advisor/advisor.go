package advisor

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fenilsonani/diskwise/internal/analyzer"
	"github.com/fenilsonani/diskwise/internal/classify"
	"github.com/fenilsonani/diskwise/internal/rules"
	"github.com/fenilsonani/diskwise/internal/scanner"
	"github.com/fenilsonani/diskwise/pkg/utils"
)

// CategoryLabels maps category identifiers to their display names.
var CategoryLabels = map[string]string{
	string(classify.SystemCoreFiles):         "系统核心文件",
	string(classify.DriverPackages):          "驱动与设备包",
	string(classify.WindowsUpdateCache):      "Windows 更新缓存",
	string(classify.SystemTempFiles):         "系统临时文件",
	string(classify.TemporaryFiles):          "用户临时文件",
	string(classify.AppRuntimeCache):         "软件运行缓存",
	string(classify.PackageManagerCache):     "开发包管理缓存",
	string(classify.BrowserCacheFiles):       "浏览器缓存",
	string(classify.BrowserProfileData):      "浏览器配置/站点数据",
	string(classify.ThumbnailCacheFiles):     "缩略图缓存",
	string(classify.CrashDumpFiles):          "崩溃转储文件",
	string(classify.ApplicationLogFiles):     "应用日志文件",
	string(classify.GameData):                "游戏数据",
	string(classify.ChatMediaData):           "聊天软件数据",
	string(classify.ImageRasterFiles):        "图片-位图",
	string(classify.ImageVectorFiles):        "图片-矢量图",
	string(classify.ImageRawFiles):           "图片-RAW源片",
	string(classify.VideoStandardFiles):      "视频-常规格式",
	string(classify.VideoProductionFiles):    "视频-制作素材",
	string(classify.AudioLossyFiles):         "音频-有损",
	string(classify.AudioLosslessFiles):      "音频-无损",
	string(classify.WordDocuments):           "文档-文本/Word",
	string(classify.SpreadsheetDocuments):    "文档-表格",
	string(classify.PresentationDocuments):   "文档-演示文稿",
	string(classify.PDFDocuments):            "文档-PDF",
	string(classify.DocumentTextFiles):       "文档-纯文本",
	string(classify.StructuredDataDocuments): "文档-结构化数据",
	string(classify.ArchiveFiles):            "压缩文件",
	string(classify.DiskImageFiles):          "磁盘镜像",
	string(classify.DatabaseFiles):           "数据库文件",
	string(classify.VirtualMachineFiles):     "虚拟机镜像",
	string(classify.SourceCodeFiles):         "源代码",
	string(classify.ScriptFiles):             "脚本文件",
	string(classify.InstallerPackages):       "安装包",
	string(classify.ExecutableBinaries):      "可执行/二进制",
	string(classify.SoftwareRuntimeFiles):    "软件程序文件",
	string(classify.FontFiles):               "字体文件",
	string(classify.LargeFiles):              "超大文件",
	string(classify.OtherFiles):              "其他文件",
}

// policy is the base (level, reason, risk notes) assignment for a category
// before any per-item escalation.
type policy struct {
	level     string
	reason    string
	riskNotes string
}

var defaultPolicy = policy{"L3", "该类别需要人工核验。", "中风险。"}

var categoryPolicy = map[string]policy{
	string(classify.TemporaryFiles):        {"L1", "用户临时文件，通常可安全清理。", "低风险。"},
	string(classify.SystemTempFiles):       {"L2", "系统临时文件一般可清理。", "中低风险。"},
	string(classify.AppRuntimeCache):       {"L1", "应用运行缓存可再生。", "低风险。"},
	string(classify.BrowserCacheFiles):     {"L1", "浏览器缓存可再生。", "低风险。"},
	string(classify.ThumbnailCacheFiles):   {"L1", "缩略图缓存可重建。", "低风险。"},
	string(classify.ApplicationLogFiles):   {"L2", "日志文件通常可清理。", "中低风险。"},
	string(classify.CrashDumpFiles):        {"L2", "崩溃转储多用于排障。", "中低风险。"},
	string(classify.WindowsUpdateCache):    {"L2", "Windows 更新缓存通常可清理。", "中低风险。"},
	string(classify.PackageManagerCache):   {"L2", "开发包管理缓存可重新下载。", "中低风险。"},
	string(classify.ArchiveFiles):          {"L3", "压缩文件可能是备份或安装包。", "中风险。"},
	string(classify.DiskImageFiles):        {"L3", "磁盘镜像体积大且可能复用。", "中风险。"},
	string(classify.InstallerPackages):     {"L3", "旧安装包通常可清理。", "中风险。"},
	string(classify.LargeFiles):            {"L3", "大文件可释放明显空间。", "中风险。"},
	string(classify.ImageRawFiles):         {"L4", "RAW 原片通常是源素材。", "高风险。"},
	string(classify.VideoProductionFiles):  {"L4", "视频制作素材通常不可再生。", "高风险。"},
	string(classify.AudioLosslessFiles):    {"L3", "无损音频体积较大但可能重要。", "中风险。"},
	string(classify.DatabaseFiles):         {"L4", "数据库文件可能包含关键数据。", "高风险。"},
	string(classify.VirtualMachineFiles):   {"L5", "虚拟机镜像是完整环境。", "极高风险。"},
	string(classify.BrowserProfileData):    {"L4", "浏览器配置/站点数据可能含登录态。", "高风险。"},
	string(classify.ChatMediaData):         {"L4", "聊天软件数据可能包含历史记录和附件。", "高风险。"},
	string(classify.WordDocuments):         {"L4", "文本文档/Word 可能是工作资料。", "高风险。"},
	string(classify.SpreadsheetDocuments):  {"L4", "表格文档可能包含关键业务数据。", "高风险。"},
	string(classify.PresentationDocuments): {"L4", "演示文稿可能为业务资产。", "高风险。"},
	string(classify.PDFDocuments):          {"L4", "PDF 可能为合同或归档文档。", "高风险。"},
	string(classify.SourceCodeFiles):       {"L4", "源代码通常属于核心资产。", "高风险。"},
	string(classify.ScriptFiles):           {"L4", "脚本可能参与自动化流程。", "高风险。"},
	string(classify.ExecutableBinaries):    {"L4", "二进制文件可能是程序运行组件。", "高风险。"},
	string(classify.SoftwareRuntimeFiles):  {"L5", "程序目录文件不应批量删除。", "极高风险。"},
	string(classify.SystemCoreFiles):       {"L5", "系统核心文件不应清理。", "极高风险。"},
	string(classify.DriverPackages):        {"L5", "驱动文件影响硬件稳定性。", "极高风险。"},
}

var levelActions = map[string]string{
	"L1": "可直接清理",
	"L2": "建议关闭相关软件后清理",
	"L3": "建议备份或确认后再清理",
	"L4": "仅在人工确认后清理",
	"L5": "建议保留，不执行自动清理",
}

var baseConfidence = map[string]float64{
	"L1": 0.95, "L2": 0.88, "L3": 0.78, "L4": 0.68, "L5": 0.96,
}

func levelUp(level string) string {
	order, ok := levelOrder[level]
	if !ok {
		order = 3
	}
	if order < 5 {
		order++
	}
	return fmt.Sprintf("L%d", order)
}

// ActionForLevel returns the recommended action text for a level.
func ActionForLevel(level string) string {
	if action, ok := levelActions[level]; ok {
		return action
	}
	return levelActions["L3"]
}

// rateItem derives the advisory record for a single scan item. itemID is the
// item's position in the scan order and is stable across reruns of the same
// scan.
func rateItem(item scanner.Item, itemID int) ItemAdvice {
	p, ok := categoryPolicy[string(item.Category)]
	if !ok {
		p = defaultPolicy
	}
	level, reason, riskNotes := p.level, p.reason, p.riskNotes

	if item.IsForbidden {
		level, reason, riskNotes = "L5", "受保护路径。", "极高风险。"
	}

	if item.RuleRisk == rules.RiskMedium && level == "L1" {
		level = "L2"
	}
	if item.RuleRisk == rules.RiskForbidden {
		level = "L5"
	}
	if item.RuleRisk == rules.RiskSuggest && levelOrder[level] < 3 {
		level = "L3"
	}
	if item.IsSuggestionOnly && levelOrder[level] < 3 {
		level = "L3"
	}
	if item.IsRecent && levelOrder[level] <= 2 {
		level = levelUp(level)
	}

	pathLower := strings.ToLower(item.Path)
	if strings.HasPrefix(pathLower, `c:\windows\`) && !strings.Contains(pathLower, "temp") && levelOrder[level] < 5 {
		level, reason, riskNotes = "L5", "Windows 系统目录文件。", "极高风险。"
	}

	confidence := baseConfidence[level]
	if item.IsRecent {
		confidence = max(0.55, confidence-0.1)
	}
	if item.RuleRisk == rules.RiskSuggest {
		confidence = max(0.50, confidence-0.08)
	}

	return ItemAdvice{
		ItemID:                itemID,
		Target:                item.Path,
		FileName:              filepath.Base(item.Path),
		Level:                 level,
		Confidence:            round2(confidence),
		Reason:                reason,
		RiskNotes:             riskNotes,
		RecommendedAction:     ActionForLevel(level),
		RequiresConfirmation:  level == "L4" || level == "L5",
		EstimatedSavingsBytes: item.SizeBytes,
	}
}

func round2(f float64) float64 {
	return float64(int64(f*100+0.5)) / 100
}

func buildLevelGroups(items []ItemAdvice) map[string][]ItemAdvice {
	groups := make(map[string][]ItemAdvice, len(Levels))
	for _, level := range Levels {
		groups[level] = []ItemAdvice{}
	}
	for _, item := range items {
		groups[item.Level] = append(groups[item.Level], item)
	}
	return groups
}

// aggregate computes level counts and the estimated savings, which sums L1-L3
// only. Confirmation-gated items never count toward savings.
func aggregate(items []ItemAdvice) (map[string]int, int64) {
	counts := make(map[string]int, len(Levels))
	for _, level := range Levels {
		counts[level] = 0
	}
	var savings int64
	for _, item := range items {
		counts[item.Level]++
		if levelOrder[item.Level] <= 3 {
			savings += item.EstimatedSavingsBytes
		}
	}
	return counts, savings
}

func buildDiagnosis(items []ItemAdvice, stats *analyzer.Stats, counts map[string]int, savings int64) Diagnosis {
	type categorySize struct {
		name string
		size int64
		cnt  int
	}
	var top []categorySize
	if stats != nil {
		for category, b := range stats.CategoryBreakdown {
			top = append(top, categorySize{name: category, size: b.Size, cnt: b.Count})
		}
	}
	sort.SliceStable(top, func(i, j int) bool {
		if top[i].size != top[j].size {
			return top[i].size > top[j].size
		}
		return top[i].name < top[j].name
	})
	if len(top) > 4 {
		top = top[:4]
	}

	highlights := make([]string, 0, len(top))
	for _, c := range top {
		label := c.name
		if cn, ok := CategoryLabels[c.name]; ok {
			label = cn
		}
		highlights = append(highlights, fmt.Sprintf("%s: %s / %d 项", label, utils.FormatBytes(c.size), c.cnt))
	}

	highRisk := counts["L4"] + counts["L5"]
	return Diagnosis{
		Summary: fmt.Sprintf("本次识别到 %d 项候选文件，预计可释放 %s，其中 L4-L5 共 %d 项。",
			len(items), utils.FormatBytes(savings), highRisk),
		Highlights: highlights,
		Risks: []string{
			"L4/L5 涉及系统、文档、数据库或运行组件，请谨慎处理。",
			"近期修改文件会自动提升谨慎等级，避免误删正在使用的数据。",
		},
		Actions: []string{
			"先清理 L1，再评估 L2。",
			"L3 建议小批次处理，并保留回退窗口。",
			"L4/L5 仅用于人工核验，不建议自动清理。",
		},
	}
}

// Derive rates every scan item and assembles the full advisory result. It is
// deterministic: the same items and stats always yield the same result. Items
// are ordered by level ascending, then estimated savings descending.
func Derive(items []scanner.Item, stats *analyzer.Stats) *Result {
	rated := make([]ItemAdvice, 0, len(items))
	for idx, item := range items {
		rated = append(rated, rateItem(item, idx))
	}
	sort.SliceStable(rated, func(i, j int) bool {
		li, lj := levelOrder[rated[i].Level], levelOrder[rated[j].Level]
		if li != lj {
			return li < lj
		}
		return rated[i].EstimatedSavingsBytes > rated[j].EstimatedSavingsBytes
	})

	counts, savings := aggregate(rated)
	diagnosis := buildDiagnosis(rated, stats, counts, savings)

	advice := Advice{
		Summary: Summary{
			EstimatedSavingsBytes: savings,
			LevelCounts:           counts,
			KeyRisks:              diagnosis.Risks,
		},
		Diagnosis:   diagnosis,
		LevelGroups: buildLevelGroups(rated),
		Items:       rated,
	}

	report := Report{
		Overview: diagnosis.Summary,
		Findings: ReportFindings{
			QuickWins: []string{
				"L1-L2 通常包含临时文件、缓存和日志。",
				"按体积优先处理可快速释放空间。",
			},
			MediumRisks: []string{
				"L3 常见于安装包、压缩包和大文件。",
			},
			DoNotTouch: []string{
				"L5 多为系统核心或驱动相关文件。",
			},
		},
		Recommendations: ReportRecommendations{
			CleanupStrategy: []string{
				"建议按 L1 -> L2 -> L3 的顺序推进。",
				"每批清理后先验证系统和应用稳定性。",
			},
			NonDeleteOptions: []string{
				"大文件优先迁移到非系统盘。",
				"重要文件优先归档而非删除。",
			},
		},
	}

	return &Result{Advice: advice, Report: report}
}
