// Package main provides localization for the pixlview CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI and log messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Commands
		"Play videos in the terminal":            "ターミナルで動画を再生",
		"Play a video in the terminal":           "ターミナルで動画を再生",
		"Print video metadata":                   "動画のメタデータを表示",
		"Print a single frame with ANSI colours": "1フレームをANSIカラーで表示",
		"Usage: pixlview %s <video-file>":        "使い方: pixlview %s <動画ファイル>",

		// Global flags
		"YAML configuration file":                             "YAML設定ファイル",
		"Path to the ffmpeg executable":                       "ffmpeg実行ファイルのパス",
		"Path to the ffprobe executable":                      "ffprobe実行ファイルのパス",
		"Decode frame rate (0 picks one from the frame size)": "デコードのフレームレート（0でフレームサイズから自動選択）",
		"Maximum decoded width in pixels":                     "デコード時の最大幅（ピクセル）",
		"Maximum decoded height in pixels":                    "デコード時の最大高さ（ピクセル）",
		"Frame buffer allocator (heap, libc)":                 "フレームバッファのアロケータ（heap, libc）",
		"How often playback end is checked":                   "再生終了を確認する間隔",
		"Seek distance for the arrow keys":                    "矢印キーでのシーク量",
		"Log level (debug, info, warn, error, quiet)":         "ログレベル（debug, info, warn, error, quiet）",
		"Write logs to this file":                             "ログの出力先ファイル",

		// Snapshot flags
		"Position of the frame":                         "フレームの位置",
		"Frame width in pixels":                         "フレームの幅（ピクセル）",
		"Frame height in pixels, two per text row":      "フレームの高さ（ピクセル、1行あたり2）",
		"Print brightness characters instead of colour": "カラーの代わりに明度文字で表示",
		"Give up when no frame arrives in time":         "時間内にフレームが届かなければ中止",

		// Output
		"File:     %s\n":                 "ファイル:   %s\n",
		"Size:     %dx%d\n":              "サイズ:     %dx%d\n",
		"Codec:    %s\n":                 "コーデック: %s\n",
		"FPS:      %.2f\n":               "FPS:        %.2f\n",
		"Duration: %v\n":                 "再生時間:   %v\n",
		"Decode:   %dx%d @ %.1f fps\n":   "デコード:   %dx%d @ %.1f fps\n",
		"Video: %s (%dx%d @ %.1f fps)\n": "動画: %s (%dx%d @ %.1f fps)\n",
		"Frame at: %v\n\n":               "フレーム位置: %v\n\n",

		// Log messages
		"Loaded %s (session %s)":                                  "%s を読み込みました（セッション %s）",
		"Format negotiated: %s, %d bytes per frame":               "フォーマット決定: %s、1フレーム %d バイト",
		"Format negotiation failed: %v":                           "フォーマットのネゴシエーションに失敗: %v",
		"Playback finished at %v":                                 "%v で再生が終了しました",
		"Playback stopped: %v":                                    "再生が停止しました: %v",
		"Player disposed (session %s, %d blocks / %d bytes live)": "プレーヤーを破棄しました（セッション %s、残り %d ブロック / %d バイト）",
		"Stopping previous session failed: %v":                    "前のセッションの停止に失敗: %v",
		"Rewind failed: %v":                                       "巻き戻しに失敗: %v",
		"Allocator %s unavailable, using heap: %v":                "アロケータ %s が使えないためヒープを使用します: %v",
		"%s failed: %v":                                           "%s に失敗: %v",
	})
}
