// Package guardian はガーディアン（保護者）向けAPIの型付きクライアントを提供する。
//
// 全ての呼び出しは認証付きHTTPクライアント（httpclient.Client）を経由し、
// 参照系の結果はquerycache.Cacheにキー階層で保持される。
// 更新系の呼び出しは成功時に関連するキャッシュを無効化する。
//
// キャッシュキー:
//
//	members/list
//	members/detail/<memberID>
//	wallets/member/<memberID>
//	wallets/transactions/<memberID>/<query>
//	wallets/deposits/<query>
//	wallets/spending-limits/<memberID>
package guardian
