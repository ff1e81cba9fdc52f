// Package credential は端末ローカルの設定値ストアと、その上に構築した
// 資格情報ストアを提供する。
//
// Storeは認証トークン、キャッシュしたユーザー情報、テーマ設定を保持し、
// httpclient.CredentialStoreを満たす。保存先はメモリまたはSQLiteから選べる。
package credential
