// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ProfileSanitizerService はログインAPIレスポンス由来のプロフィール項目を
// サニタイズし、セッションに保存される値にマークアップが紛れ込むのを防ぐ。
// bluemondayのStrictPolicyにより、すべてのHTMLタグと属性が除去される。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ProfileSanitizerService はプロフィール項目のサニタイズ機能のインターフェースを定義する。
// セッションストアがログイン時に使用する。
type ProfileSanitizerService interface {
	// SanitizeName は表示名からすべてのHTMLタグ・属性を除去し、
	// 前後の空白をトリムした文字列を返す。
	// 空文字列の入力には空文字列を返す。冪等。
	SanitizeName(name string) string
}

// profileSanitizer はProfileSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type profileSanitizer struct {
	policy *bluemonday.Policy
}

// NewProfileSanitizer はProfileSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicy（全タグ除去）を使用する。表示名は常にプレーンテキストであり、
// マークアップを許す理由がないため許可リストは空とする。
func NewProfileSanitizer() *profileSanitizer {
	return &profileSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// SanitizeName は表示名をサニタイズして返す。
func (s *profileSanitizer) SanitizeName(name string) string {
	return strings.TrimSpace(s.policy.Sanitize(name))
}
