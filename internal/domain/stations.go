package domain

import (
	"sort"
	"strings"
	"sync"
)

// Station and train-type directories for the two networks, keyed by the
// upstream feed's station and type codes.

var traStationNameByCode = map[string]string{
	// 縱貫線北段
	"0900": "基隆",
	"0910": "三坑",
	"0920": "八堵",
	"0930": "七堵",
	"0940": "百福",
	"0950": "五堵",
	"0960": "汐止",
	"0970": "汐科",
	"0980": "南港",
	"0990": "松山",
	"1000": "臺北",
	"1010": "萬華",
	"1020": "板橋",
	"1030": "浮洲",
	"1040": "樹林",
	"1050": "南樹林",
	"1060": "山佳",
	"1070": "鶯歌",
	"1080": "桃園",
	"1090": "內壢",
	"1100": "中壢",
	"1110": "埔心",
	"1120": "楊梅",
	"1130": "富岡",
	"1140": "新富",
	"1150": "北湖",
	"1160": "湖口",
	"1170": "新豐",
	"1180": "竹北",
	"1190": "北新竹",
	"1210": "新竹",
	"1220": "三姓橋",
	"1230": "香山",
	"1240": "崎頂",
	"1250": "竹南",
	// 內灣線、六家線
	"1191": "千甲",
	"1192": "新莊",
	"1193": "竹中",
	"1194": "六家",
	"1201": "上員",
	"1202": "榮華",
	"1203": "竹東",
	"1204": "橫山",
	"1205": "九讚頭",
	"1206": "合興",
	"1207": "富貴",
	"1208": "內灣",
	// 山線
	"3140": "造橋",
	"3150": "豐富",
	"3160": "苗栗",
	"3170": "南勢",
	"3180": "銅鑼",
	"3190": "三義",
	"3210": "泰安",
	"3220": "后里",
	"3230": "豐原",
	"3240": "栗林",
	"3250": "潭子",
	"3260": "頭家厝",
	"3270": "松竹",
	"3280": "太原",
	"3290": "精武",
	"3300": "臺中",
	"3310": "五權",
	"3320": "大慶",
	"3330": "烏日",
	"3340": "新烏日",
	"3350": "成功",
	// 海線
	"2110": "談文",
	"2120": "大山",
	"2130": "後龍",
	"2140": "龍港",
	"2150": "白沙屯",
	"2160": "新埔",
	"2170": "通霄",
	"2180": "苑裡",
	"2190": "日南",
	"2200": "大甲",
	"2210": "臺中港",
	"2220": "清水",
	"2230": "沙鹿",
	"2240": "龍井",
	"2250": "大肚",
	"2260": "追分",
	// 縱貫線南段
	"3360": "彰化",
	"3370": "花壇",
	"3380": "大村",
	"3390": "員林",
	"3400": "永靖",
	"3410": "社頭",
	"3420": "田中",
	"3430": "二水",
	"3450": "林內",
	"3460": "石榴",
	"3470": "斗六",
	"3480": "斗南",
	"3490": "石龜",
	"4050": "大林",
	"4060": "民雄",
	"4070": "嘉北",
	"4080": "嘉義",
	"4090": "水上",
	"4100": "南靖",
	"4110": "後壁",
	"4120": "新營",
	"4130": "柳營",
	"4140": "林鳳營",
	"4150": "隆田",
	"4160": "拔林",
	"4170": "善化",
	"4180": "南科",
	"4190": "新市",
	"4200": "永康",
	"4210": "大橋",
	"4220": "臺南",
	"4250": "保安",
	"4260": "仁德",
	"4270": "中洲",
	"4290": "大湖",
	"4300": "路竹",
	"4310": "岡山",
	"4320": "橋頭",
	"4330": "楠梓",
	"4340": "新左營",
	"4350": "左營",
	"4360": "內惟",
	"4370": "美術館",
	"4380": "鼓山",
	"4390": "三塊厝",
	"4400": "高雄",
	"4410": "民族",
	"4420": "科工館",
	"4430": "正義",
	"4440": "鳳山",
	"4450": "後庄",
	"4460": "九曲堂",
	"4470": "六塊厝",
	"4480": "屏東",
	// 宜蘭線（部分）
	"7070": "瑞芳",
	"7120": "福隆",
	"7190": "頭城",
	"7250": "礁溪",
	"7290": "宜蘭",
	"7330": "羅東",
	"7360": "蘇澳",
}

var traTrainTypeNameByCode = map[string]string{
	"1":  "太魯閣",
	"2":  "普悠瑪",
	"3":  "自強",
	"4":  "莒光",
	"5":  "復興",
	"6":  "區間",
	"7":  "普快",
	"10": "區間快",
}

var thsrStationNameByCode = map[string]string{
	"0990": "南港",
	"1000": "臺北",
	"1010": "板橋",
	"1020": "桃園",
	"1030": "新竹",
	"1035": "苗栗",
	"1040": "臺中",
	"1043": "彰化",
	"1047": "雲林",
	"1050": "嘉義",
	"1060": "臺南",
	"1070": "左營",
}

// StationName resolves a feed station code to its display name.
func StationName(m Mode, code string) (string, bool) {
	var name string
	var ok bool
	if m == ModeTHSR {
		name, ok = thsrStationNameByCode[code]
	} else {
		name, ok = traStationNameByCode[code]
	}
	return name, ok
}

// TrainTypeName resolves a TRA train-type code to its category name.
func TrainTypeName(code string) (string, bool) {
	name, ok := traTrainTypeNameByCode[code]
	return name, ok
}

// NormalizeStationText folds the common traditional/simplified variant:
// users type both 台 and 臺, the directory stores 臺.
func NormalizeStationText(text string) string {
	return strings.ReplaceAll(text, "台", "臺")
}

var stationNamesOnce sync.Once
var stationNames map[Mode][]string

func namesFor(m Mode) []string {
	stationNamesOnce.Do(func() {
		stationNames = make(map[Mode][]string, 2)
		for mode, dir := range map[Mode]map[string]string{
			ModeTRA:  traStationNameByCode,
			ModeTHSR: thsrStationNameByCode,
		} {
			names := make([]string, 0, len(dir))
			for _, n := range dir {
				names = append(names, n)
			}
			// Longest first so 臺南 is tried before any shorter name that
			// happens to prefix the same input; ties broken lexically for a
			// deterministic scan order.
			sort.Slice(names, func(i, j int) bool {
				if len(names[i]) != len(names[j]) {
					return len(names[i]) > len(names[j])
				}
				return names[i] < names[j]
			})
			stationNames[mode] = names
		}
	})
	return stationNames[m]
}

// MatchStation matches free-form user text against the known station list
// for the given network. A station name matches when it prefixes the
// normalized input, so 新竹站 still resolves to 新竹.
func MatchStation(m Mode, text string) (string, bool) {
	text = NormalizeStationText(strings.TrimSpace(text))
	if text == "" {
		return "", false
	}
	for _, name := range namesFor(m) {
		if strings.HasPrefix(text, name) {
			return name, true
		}
	}
	return "", false
}
