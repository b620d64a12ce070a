package reminder

// Messages is the pool a daily reminder is drawn from.
var Messages = []string{
	"Time for today’s story! A few minutes of reading makes a lifetime of difference 📚",
	"You’re on your way to 1,000 books! Let’s add one more to the count today 💫",
	"Story time is calling! Grab your little reader and an adventure awaits! 🏔️",
	"Time to cozy up and read with your little one! Let’s add one more story before lights out 🌙",
	"Don’t forget today’s story! Every book gets you closer to your goal of 1,000 books before kindergarten 🍎",
	"Time spent reading is never wasted. Shall we add another book to your count now? 📖",
	"Pause your day, open a book, and watch their imagination bloom 🌷",
	"Open up a book with your little one and blast off on an adventure! 🚀",
}
