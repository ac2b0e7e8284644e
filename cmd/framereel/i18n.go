// Package main provides localization for the framereel CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Configuration": "設定",
		"Output":        "出力",
		"Encoder":       "エンコーダー",
		"Debug":         "デバッグ",
		"Logging":       "ログ",

		// Root command
		"Turn image sequences into videos": "連番画像を動画に変換",
		"framereel encodes an ordered list of same-sized images into a video or a looping GIF.": "framereelは同じサイズの画像の列を動画またはループGIFにエンコードします。",

		// Build command
		"Encode images into a video":                   "画像を動画にエンコード",
		"YAML configuration file":                      "YAML設定ファイル",
		"Output directory":                             "出力ディレクトリ",
		"Output format (h264, hevc, gif)":              "出力形式（h264, hevc, gif）",
		"Frames per second (1-60)":                     "フレームレート（1-60）",
		"Encoder backend (auto, ffmpeg, mp4, avi)":     "エンコーダーバックエンド（auto, ffmpeg, mp4, avi）",
		"Path to ffmpeg executable":                    "ffmpeg実行ファイルのパス",
		"JPEG quality of the pure Go backends (1-100)": "Go実装バックエンドのJPEG品質（1-100）",
		"Do not print progress":                        "進捗を表示しない",
		"Frame %d/%d (%.0f%%)":                         "フレーム %d/%d (%.0f%%)",

		// Probe command
		"Show the video track of an MP4 or MOV file": "MP4またはMOVファイルの映像トラックを表示",
		"Print as JSON":                         "JSONで出力",
		"exactly one file argument is required": "ファイル引数を1つだけ指定してください",
		"Codec: %s (%s)":                        "コーデック: %s (%s)",
		"Size: %dx%d":                           "サイズ: %dx%d",
		"Samples: %d":                           "サンプル数: %d",
		"Timescale: %d":                         "タイムスケール: %d",
		"Duration: %.3fs":                       "再生時間: %.3f秒",
		"Fragmented: %t":                        "フラグメント化: %t",

		// Testcard command
		"Write numbered test frames":                 "番号付きテストフレームを書き出す",
		"Number of frames":                           "フレーム数",
		"Frame width":                                "フレームの幅",
		"Frame height":                               "フレームの高さ",
		"Leave the background transparent":           "背景を透明にする",
		"exactly one directory argument is required": "ディレクトリ引数を1つだけ指定してください",
		"Wrote %d frames to %s":                      "%d フレームを %s に書き出しました",

		// Summary
		"Write a build summary to file (Markdown, or JSON for .json)": "ビルドサマリーをファイルに出力（Markdown形式、.json なら JSON）",
		"Summary saved to %s":         "サマリーを %s に保存しました",
		"Failed to write summary: %s": "サマリーの書き込みに失敗しました: %s",
		"Build Summary":               "ビルドサマリー",
		"Generated":                   "生成日時",
		"Results":                     "実行結果",
		"Settings":                    "設定",
		"Item":                        "項目",
		"Value":                       "値",
		"Frame Count":                 "フレーム数",
		"Video Duration":              "動画再生時間",
		"Video File Size":             "動画ファイルサイズ",
		"Codec":                       "コーデック",
		"Timescale":                   "タイムスケール",
		"Build Time":                  "処理時間",
		"Job ID":                      "ジョブID",
		"Format":                      "形式",
		"Profile":                     "プロファイル",
		"Images":                      "画像数",
		"Frame Rate":                  "フレームレート",
		"Frame Size":                  "フレームサイズ",
		"Backend":                     "バックエンド",
		"fallback":                    "フォールバック",
		"Encoder Codec":               "エンコーダーコーデック",
		"requested":                   "要求",
		"Generated by":                "生成:",

		// Version command
		"Show version information": "バージョン情報を表示",
		"framereel version %s":     "framereel バージョン %s",
		"ffmpeg available: %t":     "ffmpeg 利用可能: %t",

		// Debug flags
		"Enable debug output":        "デバッグ出力を有効化",
		"Directory for debug output": "デバッグ出力のディレクトリ",

		// Logging flags
		"Log level (debug, info, warn, error)": "ログレベル（debug, info, warn, error）",
		"Suppress all log output":              "全てのログ出力を抑制",
	})
}
