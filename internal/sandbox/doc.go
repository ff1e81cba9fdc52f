// Package sandbox はガーディアンAPIの開発用サンドボックスサーバーを提供する。
//
// 認証系エンドポイント（ログイン、登録、リフレッシュ、ログアウト、/auth/me）と
// メンバー・ウォレットの参照系エンドポイントを実装し、クライアントを
// ローカルで端から端まで動かせるようにする。
// 発行するJWTは短命で、期限切れから一定期間内のトークンはリフレッシュできる。
// 入金や利用限度額などの残高を変更する操作は実装しない。
package sandbox
